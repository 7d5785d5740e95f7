// Package flap maps characters to flap positions and motor steps.
package flap

import "strings"

// Alphabet lists the flaps of a module in the order they pass the window.
// Flap 0 is blank.
const Alphabet = " ABCDEFGHIJKLMNOPQRSTUVWXYZ$&#0123456789:.-?!"

// Count is the number of flaps on a module.
const Count = len(Alphabet)

// Blank is the character of flap 0.
const Blank = ' '

// StepsPerRevolution is one full turn of the 28BYJ-48 stepper.
const StepsPerRevolution = 2038

// Index returns the flap showing c. Lower case letters are folded to
// upper case.
func Index(c byte) (int, bool) {
	if c >= 'a' && c <= 'z' {
		c -= 'a' - 'A'
	}
	if i := strings.IndexByte(Alphabet, c); i >= 0 {
		return i, true
	}
	return 0, false
}

// Letter returns the character on flap i.
func Letter(i int) byte {
	if i < 0 || i >= Count {
		return Blank
	}
	return Alphabet[i]
}

// TargetStep is the motor position, relative to the home position,
// where flap i shows.
func TargetStep(i int) int {
	return i * StepsPerRevolution / Count
}

// Normalize maps every character of s to the character actually shown,
// unknown characters become blank.
func Normalize(s string) string {
	b := []byte(s)
	for n, c := range b {
		i, _ := Index(c)
		b[n] = Letter(i)
	}
	return string(b)
}
