// Package transform applies per-field rewrites between the tokenizer and the
// consumers: null sentinel mapping and optional newline substitution.
package transform

import "strings"

// Mode selects what a null match does.
type Mode uint8

const (
	// ModeParse replaces matches with NullMapping.To.
	ModeParse Mode = iota
	// ModeDescribe flags matches as null and leaves the value alone.
	ModeDescribe
)

// NullMapping is a set of exact-match sentinels and their canonical
// replacement. Matching is byte-exact; nothing is trimmed.
type NullMapping struct {
	From []string
	To   string
}

// Options configures a Transformer.
type Options struct {
	Mode  Mode
	Nulls NullMapping

	// SubNewline, when set, replaces LF inside fields and drops CR. Parse
	// mode only.
	SubNewline    string
	SubNewlineSet bool
}

// Transformer rewrites fields in place.
type Transformer struct {
	mode   Mode
	from   map[string]struct{}
	to     string
	doSub  bool
	strip  *strings.Replacer
	hasAny bool
}

// New builds a Transformer from opt.
func New(opt Options) *Transformer {
	t := &Transformer{
		mode:  opt.Mode,
		from:  make(map[string]struct{}, len(opt.Nulls.From)),
		to:    opt.Nulls.To,
		doSub: opt.SubNewlineSet && opt.Mode == ModeParse,
	}
	for _, f := range opt.Nulls.From {
		t.from[f] = struct{}{}
	}
	if t.doSub {
		t.strip = strings.NewReplacer("\r", "", "\n", opt.SubNewline)
	}
	t.hasAny = len(t.from) > 0 || t.doSub
	return t
}

// IsNull reports whether v matches a sentinel.
func (t *Transformer) IsNull(v string) bool {
	_, ok := t.from[v]
	return ok
}

// Apply rewrites fields in place. In describe mode nulls must have the same
// length as fields and receives the null flags; it is ignored in parse mode.
// It returns the number of null matches.
func (t *Transformer) Apply(fields []string, nulls []bool) int {
	if !t.hasAny {
		clear(nulls)
		return 0
	}
	n := 0
	for i, v := range fields {
		isNull := t.IsNull(v)
		if isNull {
			n++
		}
		switch t.mode {
		case ModeDescribe:
			nulls[i] = isNull
		default:
			if isNull {
				fields[i] = t.to
				continue
			}
			if t.doSub && strings.ContainsAny(v, "\r\n") {
				fields[i] = t.strip.Replace(v)
			}
		}
	}
	return n
}
