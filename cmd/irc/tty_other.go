//go:build !linux

package main

func isTerminal(any) bool { return false }
