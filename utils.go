package vkframe

import (
	"unsafe"
)

var end = "\x00"
var endChar byte = '\x00'

// ToBytes will take an unsafe.Pointer and length in bytes and convert it
// to a byte slice
func ToBytes(ptr unsafe.Pointer, lenInBytes int) []byte {
	if ptr == nil || lenInBytes == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), lenInBytes)
}

// SliceBytes views the backing array of s as bytes. T must not contain
// pointers.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return ToBytes(unsafe.Pointer(&s[0]), len(s)*int(unsafe.Sizeof(zero)))
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}
