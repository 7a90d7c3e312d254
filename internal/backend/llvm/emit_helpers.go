package llvm

import (
	"fmt"
	"strings"
)

func (fe *funcEmitter) nextTemp() string {
	fe.tmpID++
	return fmt.Sprintf("%%t%d", fe.tmpID)
}

func (fe *funcEmitter) printf(format string, args ...any) {
	fmt.Fprintf(&fe.emitter.buf, format, args...)
}

func boolValue(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func formatLLVMBytes(data []byte) string {
	var sb strings.Builder
	sb.WriteString("c\"")
	for _, b := range data {
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	sb.WriteString("\"")
	return sb.String()
}

// llvmQuote renders s as a quoted LLVM name or string.
func llvmQuote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	sb.WriteByte('"')
	return sb.String()
}
