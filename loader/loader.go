package loader

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"model-viewer/core"
	"model-viewer/scene"
)

// load runs fetch in the background and posts exactly one of onLoad or
// onError to q. It returns the request id used in log lines.
func load[T any](ctx context.Context, q *Queue, log core.Logger, kind, location string,
	fetch func(ctx context.Context) (T, error), onLoad func(T), onError func(error)) string {
	id := uuid.NewString()[:8]
	log.Infof("[%s] loading %s %s", id, kind, location)

	q.Go(func() {
		result, err := guarded(ctx, fetch)
		if err != nil {
			err = fmt.Errorf("load %s %s: %w", kind, location, err)
			log.Errorf("[%s] %v", id, err)
			if onError != nil {
				q.post(func() { onError(err) })
			}
			return
		}
		log.Infof("[%s] loaded %s %s", id, kind, location)
		if onLoad != nil {
			q.post(func() { onLoad(result) })
		}
	})
	return id
}

// guarded runs fetch and reports a decoder panic as an error.
func guarded[T any](ctx context.Context, fetch func(ctx context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result, err = zero, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return fetch(ctx)
}

func displayName(location string) string {
	if IsRemote(location) {
		return path.Base(urlPath(location))
	}
	return filepath.Base(LocalPath(location))
}

// EnvironmentLoader loads equirectangular HDR images.
type EnvironmentLoader struct {
	Fetcher *Fetcher
	Queue   *Queue
	Logger  core.Logger
}

func NewEnvironmentLoader(f *Fetcher, q *Queue, logger core.Logger) *EnvironmentLoader {
	return &EnvironmentLoader{Fetcher: f, Queue: q, Logger: core.OrNop(logger)}
}

// Load fetches and decodes location in the background. onLoad receives a map
// tagged for equirectangular reflection; both callbacks run from Queue.Dispatch.
func (l *EnvironmentLoader) Load(ctx context.Context, location string, onLoad func(*scene.EnvironmentMap), onError func(error)) string {
	return load(ctx, l.Queue, l.Logger, "environment", location, func(ctx context.Context) (*scene.EnvironmentMap, error) {
		data, err := l.Fetcher.Fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		tex, err := scene.DecodeHDR(displayName(location), bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		return scene.NewEquirectEnvironment(tex), nil
	}, onLoad, onError)
}

// ModelLoader loads glTF and GLB assets.
type ModelLoader struct {
	Fetcher *Fetcher
	Queue   *Queue
	Logger  core.Logger

	// Open decodes a local file; Parse decodes an in-memory GLB.
	Open  func(path string) (*scene.Model, error)
	Parse func(name string, data []byte) (*scene.Model, error)
}

func NewModelLoader(f *Fetcher, q *Queue, logger core.Logger) *ModelLoader {
	return &ModelLoader{
		Fetcher: f,
		Queue:   q,
		Logger:  core.OrNop(logger),
		Open:    scene.LoadGLTF,
		Parse:   scene.ParseGLB,
	}
}

func (l *ModelLoader) Load(ctx context.Context, location string, onLoad func(*scene.Model), onError func(error)) string {
	return load(ctx, l.Queue, l.Logger, "model", location, func(ctx context.Context) (*scene.Model, error) {
		model, err := l.decode(ctx, location)
		if err != nil {
			return nil, err
		}
		for _, w := range model.Warnings {
			l.Logger.Warnf("%s: %s", model.Name, w)
		}
		return model, nil
	}, onLoad, onError)
}

func (l *ModelLoader) decode(ctx context.Context, location string) (*scene.Model, error) {
	if IsRemote(location) {
		if ext := strings.ToLower(path.Ext(urlPath(location))); ext == ".gltf" {
			return nil, fmt.Errorf("remote .gltf with external resources is not supported, use .glb")
		}
		data, err := l.Fetcher.Fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		return l.Parse(displayName(location), data)
	}

	local := LocalPath(location)
	var lastErr error
	for attempt := 0; attempt <= l.Fetcher.Retries; attempt++ {
		if attempt > 0 {
			l.Logger.Warnf("retrying %s after: %v", location, lastErr)
		}
		model, err := l.Open(local)
		if err == nil {
			return model, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, lastErr
}
