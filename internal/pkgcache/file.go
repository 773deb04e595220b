package pkgcache

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/golang/snappy"
	"golang.org/x/crypto/blake2b"

	"github.com/udisondev/itemdb/internal/metrics"
	"github.com/udisondev/itemdb/internal/model"
)

var (
	// ErrNoCache — файла кэша нет.
	ErrNoCache = errors.New("package cache not found")
	// ErrStale — кэш собран из другой версии исходного файла.
	ErrStale = errors.New("package cache is stale")
	// ErrCorrupt — заголовок, контрольная сумма или payload не сходятся.
	ErrCorrupt = errors.New("package cache is corrupt")
)

const (
	magic          = "IPKC"
	formatVersion  = 1
	flagSnappy     = 1 << 0
	fingerprintLen = blake2b.Size256

	// magic, u16 version, u16 flags, fingerprint, u32 payload length, u64 xxhash
	headerSize = len(magic) + 2 + 2 + fingerprintLen + 4 + 8

	fileSuffix = ".cache"
)

// File — кэш пакетов в каталоге dir. Имя файла кэша выводится из имени исходного файла.
type File struct {
	dir      string
	compress bool
}

// New returns a cache stored under dir. compress enables snappy for new writes;
// reads accept both forms.
func New(dir string, compress bool) *File {
	return &File{dir: dir, compress: compress}
}

// Path returns the cache file used for sourcePath.
func (f *File) Path(sourcePath string) string {
	return filepath.Join(f.dir, filepath.Base(sourcePath)+fileSuffix)
}

// Fingerprint returns the BLAKE2b-256 digest of the source file.
func Fingerprint(sourcePath string) ([fingerprintLen]byte, error) {
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return [fingerprintLen]byte{}, fmt.Errorf("reading package source %s: %w", sourcePath, err)
	}
	return blake2b.Sum256(raw), nil
}

// Read returns the cached packages of sourcePath if the cache matches the source's
// current contents. Errors wrap ErrNoCache, ErrStale or ErrCorrupt.
func (f *File) Read(sourcePath string) ([]*model.ItemPackage, error) {
	pkgs, err := f.read(sourcePath)
	metrics.PackageCacheReads.WithLabelValues(readResult(err)).Inc()
	return pkgs, err
}

func (f *File) read(sourcePath string) ([]*model.ItemPackage, error) {
	path := f.Path(sourcePath)
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, ErrNoCache)
	}
	if err != nil {
		return nil, fmt.Errorf("reading package cache %s: %w", path, err)
	}

	fp, err := Fingerprint(sourcePath)
	if err != nil {
		return nil, err
	}

	h, payload, err := parseHeader(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if h.fingerprint != fp {
		return nil, fmt.Errorf("%s: %w", path, ErrStale)
	}

	if h.flags&flagSnappy != 0 {
		if payload, err = snappy.Decode(nil, payload); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", path, ErrCorrupt, err)
		}
	}

	pkgs, err := Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return pkgs, nil
}

type header struct {
	version     uint16
	flags       uint16
	fingerprint [fingerprintLen]byte
}

// parseHeader проверяет заголовок и checksum, возвращая payload в том виде, как он лежит на диске.
func parseHeader(raw []byte) (header, []byte, error) {
	var h header
	if len(raw) < headerSize || !bytes.Equal(raw[:len(magic)], []byte(magic)) {
		return h, nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	off := len(magic)
	h.version = binary.LittleEndian.Uint16(raw[off:])
	h.flags = binary.LittleEndian.Uint16(raw[off+2:])
	off += 4
	copy(h.fingerprint[:], raw[off:off+fingerprintLen])
	off += fingerprintLen
	length := binary.LittleEndian.Uint32(raw[off:])
	sum := binary.LittleEndian.Uint64(raw[off+4:])
	off += 12

	if h.version != formatVersion {
		return h, nil, fmt.Errorf("%w: format version %d", ErrStale, h.version)
	}
	payload := raw[off:]
	if uint64(len(payload)) != uint64(length) {
		return h, nil, fmt.Errorf("%w: payload length %d, header says %d", ErrCorrupt, len(payload), length)
	}
	if xxhash.Sum64(payload) != sum {
		return h, nil, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	return h, payload, nil
}

// Write stores pkgs as the cache of sourcePath. The file is replaced atomically.
func (f *File) Write(sourcePath string, pkgs []*model.ItemPackage) error {
	fp, err := Fingerprint(sourcePath)
	if err != nil {
		return err
	}
	payload, err := Encode(pkgs)
	if err != nil {
		return fmt.Errorf("encoding package cache: %w", err)
	}

	var flags uint16
	if f.compress {
		payload = snappy.Encode(nil, payload)
		flags |= flagSnappy
	}

	buf := make([]byte, 0, headerSize+len(payload))
	buf = append(buf, magic...)
	buf = binary.LittleEndian.AppendUint16(buf, formatVersion)
	buf = binary.LittleEndian.AppendUint16(buf, flags)
	buf = append(buf, fp[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(payload)))
	buf = binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(payload))
	buf = append(buf, payload...)

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", f.dir, err)
	}
	tmp, err := os.CreateTemp(f.dir, filepath.Base(sourcePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("writing package cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing package cache: %w", err)
	}
	path := f.Path(sourcePath)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing package cache %s: %w", path, err)
	}

	slog.Info("package cache written", "path", path, "packages", len(pkgs), "bytes", len(buf), "compressed", f.compress)
	return nil
}

func readResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultHit
	case errors.Is(err, ErrNoCache):
		return metrics.ResultMiss
	case errors.Is(err, ErrStale):
		return metrics.ResultStale
	case errors.Is(err, ErrCorrupt):
		return metrics.ResultCorrupt
	}
	return metrics.ResultError
}
