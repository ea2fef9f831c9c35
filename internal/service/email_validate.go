package service

import "regexp"

// Sintaxis minima local@dominio.tld: sin espacios ni '@' extra en cada
// parte y al menos un punto en el dominio.
var recoveryEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidRecoveryEmail valida la sintaxis del correo de recuperación.
func ValidRecoveryEmail(email string) bool {
	return recoveryEmailPattern.MatchString(email)
}
