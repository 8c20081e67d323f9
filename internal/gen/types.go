package gen

import "strings"

// goType maps a Slice primitive or user-defined type name to its Go
// spelling. User-defined names pass through unchanged (the generator
// emits them as Go types of the same name).
func goType(sliceType string) string {
	switch sliceType {
	case "byte":
		return "byte"
	case "bool":
		return "bool"
	case "short":
		return "int16"
	case "int":
		return "int32"
	case "long":
		return "int64"
	case "float":
		return "float32"
	case "double":
		return "float64"
	case "string":
		return "string"
	default:
		return exported(sliceType)
	}
}

// exported upper-cases the first rune of name so every generated field,
// type and method is exported, matching the teacher's generated-code
// convention of exposing everything a consumer package needs.
func exported(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// writerFor returns the pkg/wire Stream write method name for a
// primitive Slice type, or "" if t is not a primitive (the caller must
// then emit a call to the type's own Write method).
func writerFor(t string) string {
	switch t {
	case "byte":
		return "WriteByte"
	case "bool":
		return "WriteBool"
	case "short":
		return "WriteShort"
	case "int":
		return "WriteInt"
	case "long":
		return "WriteLong"
	case "float":
		return "WriteFloat"
	case "double":
		return "WriteDouble"
	case "string":
		return "WriteString"
	default:
		return ""
	}
}

// readerFor mirrors writerFor for the read side.
func readerFor(t string) string {
	switch t {
	case "byte":
		return "ReadByte"
	case "bool":
		return "ReadBool"
	case "short":
		return "ReadShort"
	case "int":
		return "ReadInt"
	case "long":
		return "ReadLong"
	case "float":
		return "ReadFloat"
	case "double":
		return "ReadDouble"
	case "string":
		return "ReadString"
	default:
		return ""
	}
}
