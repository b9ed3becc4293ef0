package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// Prints ADMIN_PASSWORD_HASH and ADMIN_TOTP_SECRET values for a new admin, or the
// current TOTP code for an existing secret with -code.
func main() {
	account := flag.String("account", "admin", "TOTP account name")
	codeOnly := flag.Bool("code", false, "print the current TOTP code for ADMIN_TOTP_SECRET and exit")
	flag.Parse()

	if *codeOnly {
		secret := os.Getenv("ADMIN_TOTP_SECRET")
		if secret == "" {
			fmt.Println("ADMIN_TOTP_SECRET is not set")
			os.Exit(1)
		}
		code, err := totp.GenerateCode(secret, time.Now())
		if err != nil {
			fmt.Printf("Error generating TOTP code: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Current TOTP Code: %s\n", code)
		fmt.Printf("Valid for: ~30 seconds\n")
		return
	}

	fmt.Print("Admin password: ")
	password, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && password == "" {
		fmt.Printf("Error reading password: %v\n", err)
		os.Exit(1)
	}
	password = strings.TrimRight(password, "\r\n")
	if len(password) < 12 {
		fmt.Println("Password must be at least 12 characters")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Printf("Error hashing password: %v\n", err)
		os.Exit(1)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "wallet-backend",
		AccountName: *account,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		fmt.Printf("Error generating TOTP secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Printf("ADMIN_PASSWORD_HASH='%s'\n", hash)
	fmt.Printf("ADMIN_TOTP_SECRET='%s'\n", key.Secret())
	fmt.Printf("TOTP URL: %s\n", key.URL())
}
