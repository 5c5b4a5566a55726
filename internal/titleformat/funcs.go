package titleformat

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type funcImpl func(f Fields, args []seq) (string, bool)

type funcDef struct {
	min, max int // max < 0 means variadic
	fn       funcImpl
}

func (d funcDef) arity() string {
	switch {
	case d.max < 0:
		return fmt.Sprintf("at least %d", d.min)
	case d.min == d.max:
		return strconv.Itoa(d.min)
	default:
		return fmt.Sprintf("%d to %d", d.min, d.max)
	}
}

var funcs map[string]funcDef

func init() {
	funcs = map[string]funcDef{
		"if":      {2, 3, fnIf},
		"if2":     {2, 2, fnIf2},
		"if3":     {2, -1, fnIf3},
		"not":     {1, 1, fnNot},
		"and":     {1, -1, fnAnd},
		"or":      {1, -1, fnOr},
		"upper":   {1, 1, mapString(strings.ToUpper)},
		"lower":   {1, 1, mapString(strings.ToLower)},
		"trim":    {1, 1, mapString(strings.TrimSpace)},
		"left":    {2, 2, fnLeft},
		"len":     {1, 1, fnLen},
		"num":     {2, 2, fnNum},
		"replace": {3, -1, fnReplace},
	}
}

func fnIf(f Fields, args []seq) (string, bool) {
	if _, ok := args[0].eval(f); ok {
		return args[1].eval(f)
	}
	if len(args) == 3 {
		return args[2].eval(f)
	}
	return "", false
}

func fnIf2(f Fields, args []seq) (string, bool) {
	if v, ok := args[0].eval(f); ok {
		return v, true
	}
	return args[1].eval(f)
}

func fnIf3(f Fields, args []seq) (string, bool) {
	last := len(args) - 1
	for _, a := range args[:last] {
		if v, ok := a.eval(f); ok {
			return v, true
		}
	}
	return args[last].eval(f)
}

func fnNot(f Fields, args []seq) (string, bool) {
	_, ok := args[0].eval(f)
	return "", !ok
}

func fnAnd(f Fields, args []seq) (string, bool) {
	for _, a := range args {
		if _, ok := a.eval(f); !ok {
			return "", false
		}
	}
	return "", true
}

func fnOr(f Fields, args []seq) (string, bool) {
	for _, a := range args {
		if _, ok := a.eval(f); ok {
			return "", true
		}
	}
	return "", false
}

func mapString(m func(string) string) funcImpl {
	return func(f Fields, args []seq) (string, bool) {
		v, ok := args[0].eval(f)
		return m(v), ok
	}
}

func fnLeft(f Fields, args []seq) (string, bool) {
	v, ok := args[0].eval(f)
	n := evalInt(f, args[1])
	if n < 0 {
		n = 0
	}
	if utf8.RuneCountInString(v) <= n {
		return v, ok
	}
	return string([]rune(v)[:n]), ok
}

func fnLen(f Fields, args []seq) (string, bool) {
	v, ok := args[0].eval(f)
	return strconv.Itoa(utf8.RuneCountInString(v)), ok
}

// maxNumWidth caps $num padding.
const maxNumWidth = 256

// fnNum formats the first argument as an integer padded with zeros to the
// width given by the second, at most maxNumWidth.
func fnNum(f Fields, args []seq) (string, bool) {
	_, ok := args[0].eval(f)
	n := evalInt(f, args[0])
	width := min(evalInt(f, args[1]), maxNumWidth)

	s := strconv.Itoa(n)
	neg := n < 0
	if neg {
		s = s[1:]
	}
	if pad := width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	if neg {
		s = "-" + s
	}
	return s, ok
}

func fnReplace(f Fields, args []seq) (string, bool) {
	v, ok := args[0].eval(f)
	pairs := args[1:]
	for i := 0; i+1 < len(pairs); i += 2 {
		from, _ := pairs[i].eval(f)
		to, _ := pairs[i+1].eval(f)
		if from == "" {
			continue
		}
		v = strings.ReplaceAll(v, from, to)
	}
	return v, ok
}

// evalInt parses the leading integer of an argument, 0 when there is none.
// "3/12" style track numbers yield 3.
func evalInt(f Fields, arg seq) int {
	v, _ := arg.eval(f)
	v = strings.TrimSpace(v)

	end := 0
	if end < len(v) && (v[end] == '-' || v[end] == '+') {
		end++
	}
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0
	}
	return n
}
