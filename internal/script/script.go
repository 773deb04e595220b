// Package script хранит скомпилированные бонус-скрипты предметов (use/equip/unequip/combo).
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrUnbalanced is returned for a script body with mismatched braces.
var ErrUnbalanced = errors.New("unbalanced braces")

// Code — непрозрачный handle скомпилированного скрипта.
type Code interface {
	Source() string
}

// Engine compiles item scripts and owns their lifetime.
type Engine interface {
	// Compile returns nil Code for an empty body.
	Compile(src, origin string, line int) (Code, error)
	Free(code Code)
	SetConstant(name string, value int32)
}

// Program — результат компиляции TextEngine: список statement'ов без внешних фигурных скобок.
type Program struct {
	source     string
	origin     string
	line       int
	statements []string
	freed      atomic.Bool
}

// Source returns the script body as it was compiled.
func (p *Program) Source() string {
	return p.source
}

// Statements returns the `;`-separated statements of the body.
func (p *Program) Statements() []string {
	return p.statements
}

// Origin returns "file:line" the script was read from.
func (p *Program) Origin() string {
	return fmt.Sprintf("%s:%d", p.origin, p.line)
}

// TextEngine — минимальный движок: проверяет структуру скрипта и ведёт учёт живых handle'ов.
// Исполнение скриптов находится вне этого модуля.
type TextEngine struct {
	mu        sync.RWMutex
	constants map[string]int32

	live        atomic.Int64
	doubleFrees atomic.Int64
}

// NewTextEngine creates an engine with an empty constant table.
func NewTextEngine() *TextEngine {
	return &TextEngine{
		constants: make(map[string]int32),
	}
}

// Compile parses src. Braces around the whole body are optional.
func (e *TextEngine) Compile(src, origin string, line int) (Code, error) {
	body := strings.TrimSpace(src)
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		body = strings.TrimSpace(body[1 : len(body)-1])
	}
	if body == "" {
		return nil, nil
	}

	depth := 0
	for i, r := range body {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("%s:%d: offset %d: %w", origin, line, i, ErrUnbalanced)
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("%s:%d: %w", origin, line, ErrUnbalanced)
	}

	var stmts []string
	for _, s := range strings.Split(body, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}

	e.live.Add(1)
	return &Program{
		source:     body,
		origin:     origin,
		line:       line,
		statements: stmts,
	}, nil
}

// Free releases a handle. Freeing the same handle twice is logged and counted.
func (e *TextEngine) Free(code Code) {
	p, ok := code.(*Program)
	if !ok || p == nil {
		return
	}
	if !p.freed.CompareAndSwap(false, true) {
		e.doubleFrees.Add(1)
		slog.Error("script freed twice", "origin", p.Origin())
		return
	}
	e.live.Add(-1)
}

// SetConstant registers a named constant visible to scripts.
func (e *TextEngine) SetConstant(name string, value int32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.constants[name] = value
}

// Constant looks up a constant registered with SetConstant.
func (e *TextEngine) Constant(name string) (int32, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.constants[name]
	return v, ok
}

// Live returns the number of compiled handles not yet freed.
func (e *TextEngine) Live() int64 {
	return e.live.Load()
}

// DoubleFrees returns how many times Free was called on an already freed handle.
func (e *TextEngine) DoubleFrees() int64 {
	return e.doubleFrees.Load()
}
