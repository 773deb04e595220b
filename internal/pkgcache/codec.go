// Package pkgcache хранит разобранную таблицу пакетов в бинарном файле,
// чтобы не разбирать YAML при каждом старте.
package pkgcache

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/udisondev/itemdb/internal/model"
)

// Encode serializes packages into the cache payload (little-endian).
//
//	u32 package count
//	per package: u32 id, u16 must count, u16 random group count
//	  must entry:   u32 item, u16 qty, u16 hours, u8 announce, u8 named
//	  random group: u16 entry count, then per entry
//	                u32 item, u16 qty, u16 rate, u16 hours, u8 announce, u8 named
func Encode(pkgs []*model.ItemPackage) ([]byte, error) {
	buf := make([]byte, 0, 64*len(pkgs))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(pkgs)))

	for _, p := range pkgs {
		if len(p.Must) > math.MaxUint16 || len(p.Random) > math.MaxUint16 {
			return nil, fmt.Errorf("package %d: too many entries", p.ID)
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(p.ID))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p.Must)))
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p.Random)))

		for _, e := range p.Must {
			if err := checkEntry(p.ID, e); err != nil {
				return nil, err
			}
			buf = binary.LittleEndian.AppendUint32(buf, uint32(e.ItemID))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Quantity))
			buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Hours))
			buf = append(buf, boolByte(e.Announce), boolByte(e.Named))
		}

		for _, g := range p.Random {
			if len(g.Entries) > math.MaxUint16 {
				return nil, fmt.Errorf("package %d: random group too large", p.ID)
			}
			buf = binary.LittleEndian.AppendUint16(buf, uint16(len(g.Entries)))
			for _, e := range g.Entries {
				if err := checkEntry(p.ID, e); err != nil {
					return nil, err
				}
				buf = binary.LittleEndian.AppendUint32(buf, uint32(e.ItemID))
				buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Quantity))
				buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Rate))
				buf = binary.LittleEndian.AppendUint16(buf, uint16(e.Hours))
				buf = append(buf, boolByte(e.Announce), boolByte(e.Named))
			}
		}
	}
	return buf, nil
}

func checkEntry(pkgID int32, e model.PackageEntry) error {
	switch {
	case e.Quantity < 0 || e.Quantity > math.MaxUint16:
		return fmt.Errorf("package %d item %d: quantity %d out of range", pkgID, e.ItemID, e.Quantity)
	case e.Hours < 0 || e.Hours > math.MaxUint16:
		return fmt.Errorf("package %d item %d: expire hours %d out of range", pkgID, e.ItemID, e.Hours)
	case e.Rate < 0 || e.Rate > model.RateMax:
		return fmt.Errorf("package %d item %d: rate %d out of range", pkgID, e.ItemID, e.Rate)
	}
	return nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

// reader — курсор по payload; первая ошибка запоминается, дальнейшие чтения возвращают 0.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.buf)-r.off < n {
		r.err = fmt.Errorf("%w: truncated at offset %d", ErrCorrupt, r.off)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u8() byte {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) u16() uint16 {
	if b := r.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *reader) u32() uint32 {
	if b := r.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

// Decode parses a payload written by Encode.
func Decode(payload []byte) ([]*model.ItemPackage, error) {
	r := &reader{buf: payload}
	count := r.u32()
	// every package takes at least 8 bytes
	if r.err == nil && uint64(count)*8 > uint64(len(payload)) {
		return nil, fmt.Errorf("%w: package count %d exceeds payload", ErrCorrupt, count)
	}

	pkgs := make([]*model.ItemPackage, 0, count)
	for range count {
		p := &model.ItemPackage{ID: int32(r.u32())}
		mustN, groupN := r.u16(), r.u16()

		for range mustN {
			e := model.PackageEntry{
				ItemID:   int32(r.u32()),
				Quantity: int32(r.u16()),
				Rate:     model.RateMax,
				Hours:    int32(r.u16()),
			}
			e.Announce, e.Named = r.u8() != 0, r.u8() != 0
			p.Must = append(p.Must, e)
		}

		for range groupN {
			n := r.u16()
			g := model.RandomGroup{Entries: make([]model.PackageEntry, 0, n)}
			for range n {
				e := model.PackageEntry{
					ItemID:   int32(r.u32()),
					Quantity: int32(r.u16()),
					Rate:     int32(r.u16()),
					Hours:    int32(r.u16()),
				}
				e.Announce, e.Named = r.u8() != 0, r.u8() != 0
				g.Entries = append(g.Entries, e)
			}
			p.Random = append(p.Random, g)
		}

		if r.err != nil {
			return nil, r.err
		}
		pkgs = append(pkgs, p)
	}

	if r.err != nil {
		return nil, r.err
	}
	if r.off != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(payload)-r.off)
	}
	return pkgs, nil
}
