// Generates a random key suitable for the SECRET_KEY setting that signs
// session cookies.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

const secretKeyBytesLen = 32

func main() {
	b := make([]byte, secretKeyBytesLen)

	_, err := rand.Read(b)
	if err != nil {
		fmt.Printf("error while generating secret key: %v", err)
		os.Exit(1)
	}

	fmt.Println(hex.EncodeToString(b))
}
