package snapshot

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	recgo "github.com/hupe1980/recgo"
	"github.com/hupe1980/recgo/codec"
	"github.com/hupe1980/recgo/model"
)

// Options configures snapshot writing. Reading needs no options: the
// stream header is self-describing.
type Options struct {
	// Codec encodes record trees. Defaults to codec.Default; its name is
	// recorded in the header.
	Codec codec.Codec

	// Compression selects the block compression. Defaults to
	// CompressionZSTD.
	Compression CompressionType
}

// Export writes every record tree of the table to w.
//
// Records are hydrated through the table's normal fetch path, so a
// snapshot captures the trees as the application would see them; dangling
// child references are skipped the same way a fetch skips them.
func Export(ctx context.Context, table *recgo.Table, w io.Writer, optFns ...func(*Options)) error {
	o := Options{Codec: codec.Default, Compression: CompressionZSTD}
	for _, fn := range optFns {
		fn(&o)
	}
	if o.Codec == nil {
		o.Codec = codec.Default
	}

	recs, err := table.FetchAll(ctx)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, o); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, uint32(len(recs))); err != nil {
		return err
	}

	for _, rec := range recs {
		data, err := o.Codec.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record %d: %w", rec.ID, err)
		}
		block, err := compressBlock(data, o.Compression)
		if err != nil {
			return fmt.Errorf("compress record %d: %w", rec.ID, err)
		}
		if err := binary.Write(bw, binary.LittleEndian, uint32(len(block))); err != nil {
			return err
		}
		if _, err := bw.Write(block); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Import reads a snapshot from r and saves every record tree into the
// table, preserving record ids. Saving follows the table's normal save
// path: records validate against the current schema and existing rows with
// matching ids are overwritten. Import is not atomic; a failure partway
// leaves the records saved so far in place.
func Import(ctx context.Context, table *recgo.Table, r io.Reader) error {
	br := bufio.NewReader(r)

	compression, c, err := readHeader(br)
	if err != nil {
		return err
	}

	var count uint32
	if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
		return err
	}

	for i := uint32(0); i < count; i++ {
		var blockLen uint32
		if err := binary.Read(br, binary.LittleEndian, &blockLen); err != nil {
			return err
		}
		block := make([]byte, blockLen)
		if _, err := io.ReadFull(br, block); err != nil {
			return err
		}

		data, err := decompressBlock(block, compression)
		if err != nil {
			return err
		}

		var rec model.Record
		if err := c.Unmarshal(data, &rec); err != nil {
			return fmt.Errorf("decode snapshot record: %w", err)
		}
		if err := restoreFieldTypes(ctx, table, &rec); err != nil {
			return err
		}
		if err := table.Save(ctx, &rec); err != nil {
			return err
		}
	}

	return nil
}

// writeHeader emits magic, version, compression type and codec name.
func writeHeader(w io.Writer, o Options) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(MagicNumber)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(Version)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint8(o.Compression)); err != nil {
		return err
	}
	name := []byte(o.Codec.Name())
	if err := binary.Write(w, binary.LittleEndian, uint16(len(name))); err != nil {
		return err
	}
	_, err := w.Write(name)
	return err
}

func readHeader(r io.Reader) (CompressionType, codec.Codec, error) {
	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, nil, err
	}
	if magic != MagicNumber {
		return 0, nil, ErrInvalidMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, nil, err
	}
	if version != Version {
		return 0, nil, fmt.Errorf("%w: %d", ErrInvalidVersion, version)
	}

	var compression uint8
	if err := binary.Read(r, binary.LittleEndian, &compression); err != nil {
		return 0, nil, err
	}

	var nameLen uint16
	if err := binary.Read(r, binary.LittleEndian, &nameLen); err != nil {
		return 0, nil, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return 0, nil, err
	}
	c, ok := codec.ByName(string(name))
	if !ok {
		return 0, nil, fmt.Errorf("%w: %q", ErrInvalidCodec, name)
	}

	return CompressionType(compression), c, nil
}

// restoreFieldTypes walks a decoded record tree and coerces field values
// back to their canonical representations. Generic JSON decoding yields
// float64 for every number and a base64 string for blob bytes; the table
// schema says what each field actually is.
func restoreFieldTypes(ctx context.Context, table *recgo.Table, rec *model.Record) error {
	for _, f := range table.Fields() {
		v, ok := rec.Fields[f.Name]
		if !ok {
			continue
		}
		if f.Type == model.Blob {
			if s, isStr := v.(string); isStr {
				b, err := base64.StdEncoding.DecodeString(s)
				if err != nil {
					return fmt.Errorf("field %q: %w", f.Name, err)
				}
				rec.Fields[f.Name] = b
				continue
			}
		}
		if nv, ok := model.Normalize(v, f.Type); ok {
			rec.Fields[f.Name] = nv
		}
	}

	for name, group := range rec.Children {
		child, err := table.Child(ctx, name)
		if err != nil {
			return err
		}
		for _, crec := range group {
			if err := restoreFieldTypes(ctx, child, crec); err != nil {
				return err
			}
		}
	}
	return nil
}
