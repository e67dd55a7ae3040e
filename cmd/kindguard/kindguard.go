package main

import (
	"log"

	"github.com/yyup/kindguard/internal/kindguard/cmd"
)

func main() {
	if err := cmd.NewKindguardCmd().Execute(); err != nil {
		log.Fatalf("kindguard failed to run: %v", err)
	}
}
