package lambda

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

var (
	errNilServer = errors.New("factory returned a nil server")
	errPanic     = errors.New("panic")
)

// serverRef is published once the server is fully initialized.
type serverRef struct {
	server Server
}

// lazyServer constructs and initializes the server on first use.
type lazyServer struct {
	factory  Factory
	manifest Manifest
	env      map[string]string

	group singleflight.Group
	ready atomic.Pointer[serverRef]
}

func newLazyServer(factory Factory, manifest Manifest, env map[string]string) *lazyServer {
	return &lazyServer{
		factory:  factory,
		manifest: manifest,
		env:      env,
	}
}

// get returns the initialized server. Callers arriving during initialization
// wait for it and share its outcome. An error is not remembered.
func (l *lazyServer) get(ctx context.Context) (Server, error) {
	if ref := l.ready.Load(); ref != nil {
		return ref.server, nil
	}

	v, err, _ := l.group.Do("init", func() (any, error) {
		if ref := l.ready.Load(); ref != nil {
			return ref.server, nil
		}

		// The server outlives the invocation that happens to initialize it.
		srv, err := l.initialize(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		l.ready.Store(&serverRef{server: srv})

		return srv, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(Server), nil //nolint:forcetypeassert // Only servers are returned above.
}

// initialize runs the factory and Init, turning panics into errors so
// singleflight never re-panics in waiting goroutines.
func (l *lazyServer) initialize(ctx context.Context) (srv Server, err error) {
	defer func() {
		if r := recover(); r != nil {
			srv, err = nil, fmt.Errorf("initialize server: %w: %v", errPanic, r)
		}
	}()

	srv, err = l.factory(l.manifest)
	if err != nil {
		return nil, fmt.Errorf("construct server: %w", err)
	}

	if srv == nil {
		return nil, errNilServer
	}

	if err = srv.Init(ctx, l.env); err != nil {
		return nil, fmt.Errorf("initialize server: %w", err)
	}

	return srv, nil
}
