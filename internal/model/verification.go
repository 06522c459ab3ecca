package model

type VerificationPurpose string

const (
	PurposeRegister VerificationPurpose = "register"
	PurposeLogin    VerificationPurpose = "login"
	PurposeRecovery VerificationPurpose = "recovery"
)

func (p VerificationPurpose) Valid() bool {
	switch p {
	case PurposeRegister, PurposeLogin, PurposeRecovery:
		return true
	}
	return false
}

type ContactMode string

const (
	ContactEmail ContactMode = "email"
	ContactPhone ContactMode = "phone"
)

func (m ContactMode) Valid() bool {
	return m == ContactEmail || m == ContactPhone
}

// VerificationStage is the position of an account verification flow.
// Reset only occurs for recovery flows.
type VerificationStage int

const (
	StageRequest VerificationStage = iota
	StageVerify
	StageReset
	StageComplete
)

func (s VerificationStage) String() string {
	switch s {
	case StageRequest:
		return "request"
	case StageVerify:
		return "verify"
	case StageReset:
		return "reset"
	case StageComplete:
		return "complete"
	default:
		return "unknown"
	}
}

func (s VerificationStage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ContactDraft keeps what was typed for each mode independently.
type ContactDraft struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Value returns the draft for mode.
func (d ContactDraft) Value(mode ContactMode) string {
	if mode == ContactPhone {
		return d.Phone
	}
	return d.Email
}

type Credentials struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	AcceptTerms     bool   `json:"accept_terms"`
}

// RegisterCredentials is the validated shape for sign-up.
type RegisterCredentials struct {
	Password        string `json:"password" validate:"min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
	AcceptTerms     bool   `json:"accept_terms" validate:"required"`
}

// LoginCredentials is the validated shape for sign-in.
type LoginCredentials struct {
	Password string `json:"password" validate:"required"`
}

// PasswordReset is the validated shape of the recovery reset step.
type PasswordReset struct {
	Password        string `json:"password" validate:"min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"eqfield=Password"`
}

// Account is a verified identity with its password hash.
type Account struct {
	Subject      string      `json:"subject" db:"subject"`
	Mode         ContactMode `json:"mode" db:"mode"`
	PasswordHash string      `json:"-" db:"password_hash"`
}
