package account

import "errors"

// User-facing failures carry the product's localized messages verbatim; the
// presentation layer shows them as-is.
var (
	// ErrDuplicateAccount signals a registration against an email that is
	// already taken.
	ErrDuplicateAccount = errors.New("Usuário com este e-mail já existe.")
	// ErrInvalidCredentials signals an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("E-mail ou senha inválidos.")
	// ErrAccountNotFound signals a password recovery for an unknown email.
	ErrAccountNotFound = errors.New("Nenhum usuário encontrado com este e-mail.")
)

// RecoveryConfirmation is the message returned by a successful password
// recovery request. Mail dispatch itself is an external collaborator.
const RecoveryConfirmation = "Instruções para redefinição de senha foram enviadas para o seu e-mail."
