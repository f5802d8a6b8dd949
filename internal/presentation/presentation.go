// Package presentation implements the dig-transcript and zone-file
// text codec: one line per resource record in
// "<name> <ttl> <class> <type> <rdata>" form, a full message
// transcript mirroring `dig` output, and the line-joining needed to
// read zone-file rdata that spans multiple lines inside parentheses.
// A line the package itself emitted always parses back to an equal
// record.
package presentation

import (
	"fmt"
	"strings"

	"github.com/nazarii-m/dnscore/internal/dnsmsg"
	"github.com/nazarii-m/dnscore/internal/errs"
	"github.com/nazarii-m/dnscore/internal/names"
	"github.com/nazarii-m/dnscore/internal/rrdata"
	"github.com/nazarii-m/dnscore/internal/rrframe"
	"github.com/nazarii-m/dnscore/internal/wireconst"
)

// FormatRR renders one resource record as "<name> <ttl> <class>
// <type> <rdata>".
func FormatRR(r rrframe.Record) (string, error) {
	rdata, err := rrdata.Format(r.Data)
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("%s %d %s %s", r.Name.String(), r.TTL, wireconst.Class(r.Class).String(), r.Type.String())
	if rdata != "" {
		line += " " + rdata
	}
	return line, nil
}

// ParseRR parses one "<name> <ttl> <class> <type> <rdata>" line
// (already joined across any parenthesized continuation, see
// JoinContinuations) back into a Record.
func ParseRR(line string) (rrframe.Record, error) {
	toks := tokenize(line)
	if len(toks) < 4 {
		return rrframe.Record{}, &errs.FormatError{Op: "parse rr", Line: line, Msg: "expected at least name, ttl, class, type"}
	}
	n, err := names.Parse(toks[0])
	if err != nil {
		return rrframe.Record{}, err
	}
	ttl, err := parseTTL(toks[1])
	if err != nil {
		return rrframe.Record{}, &errs.FormatError{Op: "parse rr", Line: line, Msg: "invalid ttl"}
	}
	class, ok := parseClass(toks[2])
	if !ok {
		return rrframe.Record{}, &errs.FormatError{Op: "parse rr", Line: line, Msg: "unknown class " + toks[2]}
	}
	typ, ok := rrdata.ParseType(toks[3])
	if !ok {
		return rrframe.Record{}, &errs.FormatError{Op: "parse rr", Line: line, Msg: "unknown type " + toks[3]}
	}
	rest := toks[4:]
	var data rrdata.RData
	if len(rest) >= 2 && rest[0] == `\#` {
		data, err = parseGeneric(typ, rest[1:])
	} else {
		data, err = rrdata.ParseFields(typ, rest)
	}
	if err != nil {
		return rrframe.Record{}, err
	}
	return rrframe.Record{Name: n, Type: typ, Class: uint16(class), TTL: ttl, Data: data}, nil
}

func parseGeneric(t rrdata.Type, toks []string) (rrdata.RData, error) {
	if len(toks) < 1 {
		return rrdata.RData{}, &errs.FormatError{Op: "parse generic rdata", Msg: "missing length"}
	}
	var n int
	if _, err := fmt.Sscanf(toks[0], "%d", &n); err != nil {
		return rrdata.RData{}, &errs.FormatError{Op: "parse generic rdata", Msg: "invalid length"}
	}
	hexStr := strings.Join(toks[1:], "")
	b := make([]byte, len(hexStr)/2)
	for i := range b {
		var v int
		if _, err := fmt.Sscanf(hexStr[i*2:i*2+2], "%02x", &v); err != nil {
			return rrdata.RData{}, &errs.FormatError{Op: "parse generic rdata", Msg: "invalid hex"}
		}
		b[i] = byte(v)
	}
	if len(b) != n {
		return rrdata.RData{}, &errs.FormatError{Op: "parse generic rdata", Msg: "length mismatch"}
	}
	return rrdata.RData{Type: t, Opaque: b}, nil
}

func parseTTL(s string) (uint32, error) {
	var v uint32
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func parseClass(s string) (wireconst.Class, bool) {
	switch s {
	case "IN":
		return wireconst.ClassINET, true
	case "CS":
		return wireconst.ClassCS, true
	case "CH":
		return wireconst.ClassCHAOS, true
	case "HS":
		return wireconst.ClassHS, true
	case "NONE":
		return wireconst.ClassNONE, true
	case "ANY":
		return wireconst.ClassANY, true
	}
	if strings.HasPrefix(s, "CLASS") {
		var v uint16
		if _, err := fmt.Sscanf(s[5:], "%d", &v); err == nil {
			return wireconst.Class(v), true
		}
	}
	return 0, false
}

// tokenize splits a presentation line on whitespace, keeping a
// double-quoted run as a single token including its quotes. A
// backslash escape (such as \" or the "\ " an owner name uses for a
// space) is copied through as-is, inside or outside quotes, so it
// neither splits a token nor toggles quoting.
func tokenize(line string) []string {
	var toks []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuotes = !inQuotes
			cur.WriteByte(c)
		case c == '\\' && i+1 < len(line):
			cur.WriteByte(c)
			i++
			cur.WriteByte(line[i])
		case (c == ' ' || c == '\t') && !inQuotes:
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return toks
}

// JoinContinuations collapses zone-file-style parenthesized
// multi-line rdata into single logical lines, stripping ";"-led
// comments outside quoted strings. Parentheses are accepted on input
// only; output is always single-line.
func JoinContinuations(text string) []string {
	var out []string
	var cur strings.Builder
	depth := 0
	for _, raw := range strings.Split(text, "\n") {
		line := stripComment(raw)
		if depth > 0 {
			cur.WriteByte(' ')
		}
		for _, c := range line {
			switch c {
			case '(':
				depth++
				continue
			case ')':
				depth--
				continue
			}
			cur.WriteRune(c)
		}
		if depth <= 0 {
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
			depth = 0
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func stripComment(line string) string {
	inQuotes := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inQuotes = !inQuotes
		case ';':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

// FormatTranscript renders m as a dig-style transcript.
func FormatTranscript(m *dnsmsg.Message) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, ";; ->>HEADER<<- opcode: %s, status: %s, id: %d\n", m.Opcode.String(), m.RCode.String(), m.ID)
	fmt.Fprintf(&b, ";; flags: %s; QUERY: %d, ANSWER: %d, AUTHORITY: %d, ADDITIONAL: %d\n",
		flagMnemonics(m), len(m.Question), len(m.Answer), len(m.Authority), len(m.Additional))

	if m.EDNS != nil && m.EDNS.Enabled {
		fmt.Fprintf(&b, "\n;; OPT PSEUDOSECTION:\n; EDNS: version: %d, flags: %s; udp: %d\n",
			m.EDNS.Version, ednsFlagMnemonics(m.EDNS), m.EDNS.UDPSize)
	}

	if len(m.Question) > 0 {
		b.WriteString("\n;; QUESTION SECTION:\n")
		for _, q := range m.Question {
			fmt.Fprintf(&b, ";%s\t\t%s\t%s\n", q.Name.String(), wireconst.Class(q.Class).String(), q.Type.String())
		}
	}
	if err := formatSection(&b, "ANSWER", m.Answer); err != nil {
		return "", err
	}
	if err := formatSection(&b, "AUTHORITY", m.Authority); err != nil {
		return "", err
	}
	if err := formatSection(&b, "ADDITIONAL", m.Additional); err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatSection(b *strings.Builder, title string, recs []rrframe.Record) error {
	if len(recs) == 0 {
		return nil
	}
	fmt.Fprintf(b, "\n;; %s SECTION:\n", title)
	for _, r := range recs {
		line, err := FormatRR(r)
		if err != nil {
			return err
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return nil
}

func flagMnemonics(m *dnsmsg.Message) string {
	var flags []string
	if m.QR {
		flags = append(flags, "qr")
	}
	if m.AA {
		flags = append(flags, "aa")
	}
	if m.TC {
		flags = append(flags, "tc")
	}
	if m.RD {
		flags = append(flags, "rd")
	}
	if m.RA {
		flags = append(flags, "ra")
	}
	if m.AD {
		flags = append(flags, "ad")
	}
	if m.CD {
		flags = append(flags, "cd")
	}
	return strings.Join(flags, " ")
}

func ednsFlagMnemonics(e *dnsmsg.EDNS) string {
	if e.Flags&0x8000 != 0 {
		return "do"
	}
	return ""
}
