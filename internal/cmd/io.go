package cmd

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/yacchi/umbra"
	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/source/bytes"
	"github.com/yacchi/umbra/source/fs"
	"github.com/yacchi/umbra/source/s3"
)

// stdio is the path argument meaning stdin or stdout.
const stdio = "-"

// newStore returns a store seeded with the default layers.
func (a *app) newStore() (*umbra.Store, error) {
	return umbra.New(umbra.WithLogger(a.logger), umbra.WithRegistry(a.registry))
}

// mediaTypeFor returns the media type to declare for path, or "" when its
// extension already identifies a format.
func (a *app) mediaTypeFor(path string) (string, error) {
	if path != stdio {
		if _, ok := a.registry.ForPath(path); ok {
			return "", nil
		}
	}
	codec, err := a.defaultCodec()
	if err != nil {
		return "", err
	}
	return codec.MediaType(), nil
}

// target resolves a path to a source without reading it.
// "s3://bucket/key" selects S3, anything else the local filesystem.
func (a *app) target(path string) (source.WatchableSource, error) {
	mediaType, err := a.mediaTypeFor(path)
	if err != nil {
		return nil, err
	}
	if bucket, key, ok := s3.ParseURL(path); ok {
		opts := []s3.Option{s3.WithMediaType(mediaType)}
		if a.cfg.S3.Region != "" {
			opts = append(opts, s3.WithRegion(a.cfg.S3.Region))
		}
		if a.cfg.S3.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(a.cfg.S3.Endpoint))
		}
		return s3.New(bucket, key, opts...), nil
	}
	return fs.New(path, fs.WithMediaType(mediaType)), nil
}

// open resolves a path to a readable source. "-" reads all of in.
func (a *app) open(path string, in io.Reader) (source.Source, error) {
	if path != stdio {
		return a.target(path)
	}
	mediaType, err := a.mediaTypeFor(path)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return bytes.New(data, bytes.WithName("stdin"), bytes.WithMediaType(mediaType)), nil
}

// load imports the document at path into a new store.
func (a *app) load(ctx context.Context, path string, in io.Reader) (*umbra.Store, error) {
	src, err := a.open(path, in)
	if err != nil {
		return nil, err
	}
	store, err := a.newStore()
	if err != nil {
		return nil, err
	}
	report, err := store.Import(ctx, src)
	if err != nil {
		return nil, err
	}
	if report.Applied == "" {
		return nil, fmt.Errorf("%s: %w", path, umbra.ErrUnknownFormat)
	}
	a.logger.Debug("document loaded", zap.String("path", path), zap.Int("layers", len(store.Layers())))
	return store, nil
}

// save writes the store's document to path. "-" writes to out in the
// default format.
func (a *app) save(ctx context.Context, store *umbra.Store, path string, out io.Writer) error {
	if path == stdio {
		codec, err := a.defaultCodec()
		if err != nil {
			return err
		}
		blob, err := store.Export(codec)
		if err != nil {
			return err
		}
		_, err = out.Write(blob.Data)
		return err
	}

	dst, err := a.target(path)
	if err != nil {
		return err
	}
	blob, err := store.Save(ctx, dst, nil)
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	a.logger.Debug("document saved", zap.String("path", path), zap.String("media_type", blob.MediaType))
	return nil
}
