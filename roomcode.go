package main

import "crypto/rand"

const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const codeLength = 6

// GenerateRoomCode draws each position uniformly from codeLetters. Bytes at
// or above the largest multiple of the alphabet size are rejected to avoid
// modulo bias.
func GenerateRoomCode() string {
	const limit = byte(len(codeLetters) * (256 / len(codeLetters)))
	code := make([]byte, 0, codeLength)
	buf := make([]byte, codeLength)
	for len(code) < codeLength {
		rand.Read(buf)
		for _, v := range buf {
			if v >= limit {
				continue
			}
			code = append(code, codeLetters[int(v)%len(codeLetters)])
			if len(code) == codeLength {
				break
			}
		}
	}
	return string(code)
}
