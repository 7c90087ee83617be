package storage

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/hubenschmidt/go-vecstore/chunker"
	"github.com/hubenschmidt/go-vecstore/core"
	"github.com/hubenschmidt/go-vecstore/index"
)

// Index file layout, little-endian: 8-byte magic, uint64 dimension,
// uint64 vector count, then count*dimension float32 values in
// insertion order.
var indexMagic = [8]byte{'V', 'E', 'C', 'S', 'T', 'R', '0', '1'}

const headerSize = 24

type metadataFile struct {
	Model     string          `json:"model"`
	Documents []chunker.Chunk `json:"documents"`
}

// Save writes the index and metadata pair to disk. Each file is written
// to a temp file in its directory and renamed into place, so a reader
// never observes a half-written file.
func Save(idx *index.Flat, meta *Metadata, indexPath, metaPath, model string) error {
	dim, data := idx.Snapshot()
	entries := meta.All()

	count := 0
	if dim > 0 {
		count = len(data) / dim
	}
	if count != len(entries) {
		return fmt.Errorf("save %d vectors with %d metadata entries: %w", count, len(entries), core.ErrCorruptStore)
	}

	for _, path := range []string{indexPath, metaPath} {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create store directory %s: %w: %w", dir, core.ErrIO, err)
			}
		}
	}

	if err := writeFileAtomic(indexPath, encodeIndex(dim, data)); err != nil {
		return err
	}

	blob, err := json.MarshalIndent(metadataFile{Model: model, Documents: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return writeFileAtomic(metaPath, blob)
}

// Load reads the index and metadata pair from disk. When neither file
// exists it returns a fresh empty pair with the dimension unset. A lone
// file, a mangled index file, or a length disagreement between the two
// files is corruption: the positional alignment can no longer be
// trusted, so no partial result is returned.
func Load(indexPath, metaPath string, opts ...index.Option) (*index.Flat, *Metadata, string, error) {
	_, idxErr := os.Stat(indexPath)
	_, metaErr := os.Stat(metaPath)
	idxMissing := os.IsNotExist(idxErr)
	metaMissing := os.IsNotExist(metaErr)

	switch {
	case idxMissing && metaMissing:
		return index.New(0, opts...), NewMetadata(), "", nil
	case idxMissing:
		return nil, nil, "", fmt.Errorf("metadata file %s exists without index file %s: %w",
			metaPath, indexPath, core.ErrCorruptStore)
	case metaMissing:
		return nil, nil, "", fmt.Errorf("index file %s exists without metadata file %s: %w",
			indexPath, metaPath, core.ErrCorruptStore)
	}
	if idxErr != nil {
		return nil, nil, "", fmt.Errorf("stat %s: %w: %w", indexPath, core.ErrIO, idxErr)
	}
	if metaErr != nil {
		return nil, nil, "", fmt.Errorf("stat %s: %w: %w", metaPath, core.ErrIO, metaErr)
	}

	raw, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("read %s: %w: %w", indexPath, core.ErrIO, err)
	}
	dim, data, err := decodeIndex(raw)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: %w", indexPath, err)
	}

	blob, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, nil, "", fmt.Errorf("read %s: %w: %w", metaPath, core.ErrIO, err)
	}
	var mf metadataFile
	if err := json.Unmarshal(blob, &mf); err != nil {
		return nil, nil, "", fmt.Errorf("parse %s: %w: %w", metaPath, core.ErrCorruptStore, err)
	}

	count := 0
	if dim > 0 {
		count = len(data) / dim
	}
	if count != len(mf.Documents) {
		return nil, nil, "", fmt.Errorf("index holds %d vectors but metadata lists %d entries: %w",
			count, len(mf.Documents), core.ErrCorruptStore)
	}

	idx, err := index.Restore(dim, data, opts...)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: %w", indexPath, err)
	}
	return idx, RestoreMetadata(mf.Documents), mf.Model, nil
}

func encodeIndex(dim int, data []float32) []byte {
	count := 0
	if dim > 0 {
		count = len(data) / dim
	}

	buf := make([]byte, headerSize+4*len(data))
	copy(buf[0:8], indexMagic[:])
	binary.LittleEndian.PutUint64(buf[8:16], uint64(dim))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(count))
	for i, v := range data {
		binary.LittleEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeIndex(raw []byte) (int, []float32, error) {
	if len(raw) < headerSize {
		return 0, nil, fmt.Errorf("index file truncated at %d bytes: %w", len(raw), core.ErrCorruptStore)
	}
	if !bytes.Equal(raw[0:8], indexMagic[:]) {
		return 0, nil, fmt.Errorf("index file magic mismatch: %w", core.ErrCorruptStore)
	}

	dim := binary.LittleEndian.Uint64(raw[8:16])
	count := binary.LittleEndian.Uint64(raw[16:24])
	if dim == 0 && count > 0 {
		return 0, nil, fmt.Errorf("index file declares %d vectors with zero dimension: %w", count, core.ErrCorruptStore)
	}

	payload := uint64(len(raw) - headerSize)
	if payload%4 != 0 || payload/4 != dim*count {
		return 0, nil, fmt.Errorf("index file payload is %d bytes, header implies %d values: %w",
			payload, dim*count, core.ErrCorruptStore)
	}

	data := make([]float32, dim*count)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[headerSize+4*i:]))
	}
	return int(dim), data, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w: %w", tmp, core.ErrIO, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s to %s: %w: %w", tmp, path, core.ErrIO, err)
	}
	return nil
}
