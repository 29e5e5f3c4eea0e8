package umbra

import (
	"context"
	"errors"
	"fmt"
	"path"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yacchi/umbra/document"
	"github.com/yacchi/umbra/format"
	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/types"
)

// exportBaseName is the stem of suggested export file names.
const exportBaseName = "umbra"

// maxConcurrentLoads bounds the number of sources Import reads at once.
const maxConcurrentLoads = 8

// Blob is an encoded interchange document together with a suggested file
// name, ready to be handed to whatever persists it (download, disk, bucket).
type Blob struct {
	// Name is the suggested file name, e.g. "umbra.json".
	Name string

	// MediaType is the codec's media type.
	MediaType string

	Data []byte
}

// Export encodes the current state with codec.
// A state that import would reject, such as one whose layers were all
// removed, is not encoded: Export returns its *FormatError instead.
//
// Example:
//
//	blob, err := store.Export(yaml.NewCodec())
//	os.WriteFile(blob.Name, blob.Data, 0644)
func (s *Store) Export(codec document.Codec) (Blob, error) {
	doc := s.ExportDocument()
	if err := doc.Validate(); err != nil {
		return Blob{}, err
	}
	data, err := codec.Encode(doc)
	if err != nil {
		return Blob{}, err
	}
	return Blob{
		Name:      format.FileName(codec, exportBaseName),
		MediaType: codec.MediaType(),
		Data:      data,
	}, nil
}

// Save exports the state with codec and writes it to dst.
// If codec is nil it is picked from dst's name or media type.
// Returns source.ErrSaveNotSupported if dst cannot be written.
func (s *Store) Save(ctx context.Context, dst source.Source, codec document.Codec) (Blob, error) {
	if !dst.CanSave() {
		return Blob{}, source.ErrSaveNotSupported
	}

	d := source.Describe(dst)
	if codec == nil {
		var ok bool
		if codec, ok = s.classify(d); !ok {
			return Blob{}, fmt.Errorf("save %s: %w", displayName(d), ErrUnknownFormat)
		}
	}

	blob, err := s.Export(codec)
	if err != nil {
		return Blob{}, err
	}
	err = dst.Save(ctx, func([]byte) ([]byte, error) {
		return blob.Data, nil
	})
	if err != nil {
		return Blob{}, fmt.Errorf("save %s: %w", displayName(d), err)
	}

	s.logger.Debug("state saved",
		zap.String("target", displayName(d)),
		zap.String("format", string(codec.Format())),
		zap.Int("bytes", len(blob.Data)))
	return blob, nil
}

// ImportReport describes the outcome of an Import.
type ImportReport struct {
	// Applied is the name of the blob whose document replaced the state,
	// or empty if none did.
	Applied string

	// Skipped lists blobs that did not look like any known format.
	Skipped []string

	// Failed lists blobs that were classified but could not be loaded or
	// decoded. The reasons are in the error returned by Import.
	Failed []string
}

// Import loads every source concurrently and replaces the state with the
// document of the last source, in argument order, that decoded
// successfully. Sources whose name or media type match no codec are skipped
// without error. Every other failure is returned as an *ImportError, joined
// with errors.Join; when no source succeeds the state is left untouched.
// If ctx is canceled while loading, nothing is applied and the context error
// is returned.
//
// Example:
//
//	report, err := store.Import(ctx,
//	    fs.New("shadows.yaml"),
//	    bytes.New(upload, bytes.WithName(header.Filename)),
//	)
func (s *Store) Import(ctx context.Context, srcs ...source.Source) (ImportReport, error) {
	type outcome struct {
		name    string
		skipped bool
		doc     Document
		err     error
	}
	outcomes := make([]outcome, len(srcs))

	var g errgroup.Group
	g.SetLimit(maxConcurrentLoads)
	for i, src := range srcs {
		d := source.Describe(src)
		outcomes[i].name = displayName(d)

		codec, ok := s.classify(d)
		if !ok {
			outcomes[i].skipped = true
			continue
		}

		g.Go(func() error {
			data, err := src.Load(ctx)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				outcomes[i].err = err
				return nil
			}
			outcomes[i].doc, outcomes[i].err = decodeBlob(codec, data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ImportReport{}, fmt.Errorf("import canceled: %w", err)
	}

	var (
		report ImportReport
		errs   []error
		winner = -1
	)
	for i, o := range outcomes {
		switch {
		case o.skipped:
			report.Skipped = append(report.Skipped, o.name)
		case o.err != nil:
			report.Failed = append(report.Failed, o.name)
			errs = append(errs, &ImportError{Name: o.name, Err: o.err})
		default:
			winner = i
		}
	}

	for _, name := range report.Skipped {
		s.logger.Debug("import skipped unclassified blob", zap.String("blob", name))
	}
	if winner >= 0 {
		report.Applied = outcomes[winner].name
		s.replace(outcomes[winner].doc, report.Applied)
	}
	return report, errors.Join(errs...)
}

// classify picks the codec for a blob from its details.
func (s *Store) classify(d types.Details) (document.Codec, bool) {
	name := d.Name
	if name == "" {
		name = path.Base(d.Path)
	}
	return s.registry.Classify(name, d.MediaType)
}

// decodeBlob parses and validates one encoded document.
func decodeBlob(codec document.Codec, data []byte) (Document, error) {
	tree, err := codec.Decode(data)
	if err != nil {
		return Document{}, err
	}
	return DecodeDocument(tree)
}

func displayName(d types.Details) string {
	switch {
	case d.Path != "":
		return d.Path
	case d.Name != "":
		return d.Name
	default:
		return string(d.Source)
	}
}
