package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	cnpjRegex    = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}$`)
	cpfRegex     = regexp.MustCompile(`^\d{3}\.\d{3}\.\d{3}-\d{2}$`)
	phoneRegex   = regexp.MustCompile(`^\(\d{2}\) \d{5}-\d{4}$`)
	controlChars = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

// ValidatePhone checks the "(00) 00000-0000" mobile format
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(phone) {
		return fmt.Errorf("phone must match (00) 00000-0000: %s", phone)
	}
	return nil
}

// ValidateCNPJ checks the "00.000.000/0000-00" format and both check digits
func ValidateCNPJ(cnpj string) error {
	if !cnpjRegex.MatchString(cnpj) {
		return fmt.Errorf("CNPJ must match 00.000.000/0000-00: %s", cnpj)
	}
	d := digits(cnpj)
	if allSame(d) {
		return fmt.Errorf("invalid CNPJ: %s", cnpj)
	}

	w1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	w2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	if mod11(d[:12], w1) != d[12] || mod11(d[:13], w2) != d[13] {
		return fmt.Errorf("invalid CNPJ check digits: %s", cnpj)
	}
	return nil
}

// ValidateCPF checks the "000.000.000-00" format and both check digits
func ValidateCPF(cpf string) error {
	if !cpfRegex.MatchString(cpf) {
		return fmt.Errorf("CPF must match 000.000.000-00: %s", cpf)
	}
	d := digits(cpf)
	if allSame(d) {
		return fmt.Errorf("invalid CPF: %s", cpf)
	}

	w1 := []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	w2 := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	if mod11(d[:9], w1) != d[9] || mod11(d[:10], w2) != d[10] {
		return fmt.Errorf("invalid CPF check digits: %s", cpf)
	}
	return nil
}

// SanitizeString removes control characters and surrounding whitespace
func SanitizeString(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

func digits(s string) []int {
	out := make([]int, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, int(r-'0'))
		}
	}
	return out
}

func allSame(d []int) bool {
	for _, x := range d[1:] {
		if x != d[0] {
			return false
		}
	}
	return true
}

func mod11(d []int, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += d[i] * w
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}
