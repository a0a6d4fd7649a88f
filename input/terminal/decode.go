package terminal

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Event is one key press decoded from terminal input.
type Event struct {
	Key   string
	Ctrl  bool
	Alt   bool
	Shift bool
}

const (
	esc       = 0x1b
	ctrlC     = 0x03
	backspace = 0x7f
)

// Named keys besides single characters.
var namedKeys = map[string]struct{}{
	"space": {}, "enter": {}, "tab": {}, "escape": {}, "backspace": {},
	"up": {}, "down": {}, "left": {}, "right": {},
	"home": {}, "end": {}, "insert": {}, "delete": {}, "pageUp": {}, "pageDown": {},
}

// US layout shifted symbols and the key that produces them.
var shifted = map[rune]string{
	'!': "1", '@': "2", '#': "3", '$': "4", '%': "5", '^': "6", '&': "7", '*': "8",
	'(': "9", ')': "0", '_': "-", '+': "=", '{': "[", '}': "]", '|': "\\",
	':': ";", '"': "'", '<': ",", '>': ".", '?': "/", '~': "`",
}

var csiFinal = map[byte]string{
	'A': "up", 'B': "down", 'C': "right", 'D': "left", 'H': "home", 'F': "end",
}

var csiTilde = map[string]string{
	"1": "home", "2": "insert", "3": "delete", "4": "end", "5": "pageUp", "6": "pageDown",
	"7": "home", "8": "end",
}

// Decode splits a chunk of raw terminal input into key events.
//
// Control bytes 0x01-0x1a are ctrl+letter except tab, enter and backspace.
// Upper case letters and shifted symbols set Shift. An ESC prefix sets Alt.
// CSI sequences carry xterm modifier parameters (2 shift, 3 alt, 5 ctrl).
// A trailing lone ESC is the escape key.
func Decode(b []byte) []Event {
	var out []Event
	for len(b) > 0 {
		ev, n := decodeOne(b)
		b = b[n:]
		if ev.Key != "" {
			out = append(out, ev)
		}
	}
	return out
}

func decodeOne(b []byte) (Event, int) {
	if b[0] != esc {
		return decodeByte(b)
	}
	if len(b) == 1 {
		return Event{Key: "escape"}, 1
	}
	switch b[1] {
	case '[':
		return decodeCSI(b)
	case 'O':
		if len(b) >= 3 {
			if key, ok := csiFinal[b[2]]; ok {
				return Event{Key: key}, 3
			}
		}
		return Event{Key: "o", Alt: true, Shift: true}, 2
	case esc:
		return Event{Key: "escape", Alt: true}, 2
	}
	ev, n := decodeByte(b[1:])
	ev.Alt = true
	return ev, n + 1
}

func decodeByte(b []byte) (Event, int) {
	c := b[0]
	switch {
	case c == '\t':
		return Event{Key: "tab"}, 1
	case c == '\r' || c == '\n':
		return Event{Key: "enter"}, 1
	case c == backspace || c == 0x08:
		return Event{Key: "backspace"}, 1
	case c == ' ':
		return Event{Key: "space"}, 1
	case c == 0x00:
		return Event{Key: "space", Ctrl: true}, 1
	case c >= 0x01 && c <= 0x1a:
		return Event{Key: string(rune('a' + c - 1)), Ctrl: true}, 1
	case c < 0x20:
		// ctrl with \ ] ^ _
		return Event{}, 1
	}

	r, n := utf8.DecodeRune(b)
	if r == utf8.RuneError {
		return Event{}, n
	}
	if base, ok := shifted[r]; ok {
		return Event{Key: base, Shift: true}, n
	}
	if unicode.IsUpper(r) {
		return Event{Key: string(unicode.ToLower(r)), Shift: true}, n
	}
	return Event{Key: string(r)}, n
}

func decodeCSI(b []byte) (Event, int) {
	i := 2
	for i < len(b) && (b[i] < 0x40 || b[i] > 0x7e) {
		i++
	}
	if i == len(b) {
		return Event{}, len(b)
	}
	params, final := string(b[2:i]), b[i]
	n := i + 1

	var ev Event
	first, mod, _ := strings.Cut(params, ";")
	switch {
	case final == '~':
		key, ok := csiTilde[first]
		if !ok {
			return Event{}, n
		}
		ev.Key = key
	case final == 'Z':
		return Event{Key: "tab", Shift: true}, n
	default:
		key, ok := csiFinal[final]
		if !ok {
			return Event{}, n
		}
		ev.Key = key
	}

	if m, err := strconv.Atoi(mod); err == nil && m > 1 {
		bits := m - 1
		ev.Shift = bits&1 != 0
		ev.Alt = bits&2 != 0
		ev.Ctrl = bits&4 != 0
	}
	return ev, n
}
