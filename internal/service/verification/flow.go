package verification

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	apperrors "github.com/jwalitptl/booking-api/pkg/errors"
	"github.com/jwalitptl/booking-api/pkg/validator"
)

const (
	// ResendAfter is the countdown started on entering Verify.
	ResendAfter = 60 * time.Second
	// CodeLength is the only property of a code checked before a verifier.
	CodeLength = 6
)

const (
	KeyInvalidContact  = "verification.invalidContact"
	KeyInvalidCode     = "verification.invalidCode"
	KeyResendNotReady  = "verification.resendNotReady"
	KeyWrongStage      = "verification.wrongStage"
	KeyCodeRejected    = "verification.codeRejected"
	KeyDispatchFailed  = "verification.dispatchFailed"
	KeyCodeSent        = "verification.codeSent"
	KeyVerified        = "verification.verified"
	KeyPasswordUpdated = "verification.passwordUpdated"
)

// FlowState is a read-only view of a flow.
type FlowState struct {
	ID             string                    `json:"id"`
	Purpose        model.VerificationPurpose `json:"purpose"`
	Stage          model.VerificationStage   `json:"stage"`
	Mode           model.ContactMode         `json:"mode"`
	Drafts         model.ContactDraft        `json:"drafts"`
	Contact        string                    `json:"contact,omitempty"`
	ResendIn       int                       `json:"resend_in"`
	CanResend      bool                      `json:"can_resend"`
	AcceptedTerms  bool                      `json:"accepted_terms"`
	HasCredentials bool                      `json:"has_credentials"`
}

// Flow is one Request -> Verify -> Complete run. Recovery flows pass
// through Reset before Complete.
type Flow struct {
	id        string
	purpose   model.VerificationPurpose
	validator validator.Validator
	now       func() time.Time

	mu      sync.Mutex
	stage   model.VerificationStage
	mode    model.ContactMode
	drafts  model.ContactDraft
	creds   model.Credentials
	contact string
	sentAt  time.Time
}

func NewFlow(id string, purpose model.VerificationPurpose, v validator.Validator, now func() time.Time) (*Flow, error) {
	if !purpose.Valid() {
		return nil, apperrors.NewNotFound(fmt.Sprintf("verification purpose %q", purpose), nil)
	}
	if v == nil {
		v = validator.New()
	}
	if now == nil {
		now = time.Now
	}
	return &Flow{
		id:        id,
		purpose:   purpose,
		validator: v,
		now:       now,
		stage:     model.StageRequest,
		mode:      model.ContactEmail,
	}, nil
}

func (f *Flow) ID() string                         { return f.id }
func (f *Flow) Purpose() model.VerificationPurpose { return f.purpose }

func wrongStage(stage model.VerificationStage) error {
	return apperrors.NewConflict("action not available in stage " + stage.String()).WithKey(KeyWrongStage)
}

func (f *Flow) requireStage(stage model.VerificationStage) error {
	if f.stage != stage {
		return wrongStage(f.stage)
	}
	return nil
}

// SetMode switches the active input mode. The other mode's draft is kept.
func (f *Flow) SetMode(mode model.ContactMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageRequest); err != nil {
		return err
	}
	if !mode.Valid() {
		return apperrors.NewValidation("validation.oneOf", "mode must be email or phone",
			apperrors.FieldError{Field: "mode", Key: "validation.oneOf", Message: "mode must be one of email phone"})
	}
	f.mode = mode
	return nil
}

// SetContact stores what was typed for mode without validating it.
func (f *Flow) SetContact(mode model.ContactMode, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageRequest); err != nil {
		return err
	}
	switch mode {
	case model.ContactEmail:
		f.drafts.Email = value
	case model.ContactPhone:
		f.drafts.Phone = value
	default:
		return apperrors.NewValidation("validation.oneOf", "mode must be email or phone",
			apperrors.FieldError{Field: "mode", Key: "validation.oneOf", Message: "mode must be one of email phone"})
	}
	return nil
}

func (f *Flow) SetCredentials(creds model.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageRequest); err != nil {
		return err
	}
	f.creds = creds
	return nil
}

// Credentials returns the typed password fields.
func (f *Flow) Credentials() model.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

// validateRequest must be called with mu held.
func (f *Flow) validateRequest() []apperrors.FieldError {
	value := strings.TrimSpace(f.drafts.Value(f.mode))

	var fields []apperrors.FieldError
	if f.mode == model.ContactPhone {
		fields = f.validator.ValidateVar("phone", value, "required,min=8")
	} else {
		fields = f.validator.ValidateVar("email", value, "required,email")
	}

	switch f.purpose {
	case model.PurposeRegister:
		fields = append(fields, f.validator.Validate(model.RegisterCredentials{
			Password:        f.creds.Password,
			ConfirmPassword: f.creds.ConfirmPassword,
			AcceptTerms:     f.creds.AcceptTerms,
		})...)
	case model.PurposeLogin:
		fields = append(fields, f.validator.Validate(model.LoginCredentials{Password: f.creds.Password})...)
	}
	return fields
}

// Submit validates the active mode and moves to Verify, starting the
// resend countdown. It returns the captured contact.
func (f *Flow) Submit() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageRequest); err != nil {
		return "", err
	}
	if fields := f.validateRequest(); len(fields) > 0 {
		return "", apperrors.NewValidation(KeyInvalidContact, "invalid request", fields...)
	}

	f.contact = normalizeContact(f.mode, f.drafts.Value(f.mode))
	f.sentAt = f.now()
	f.stage = model.StageVerify
	return f.contact, nil
}

// remaining must be called with mu held.
func (f *Flow) remaining() int {
	if f.stage != model.StageVerify {
		return 0
	}
	elapsed := f.now().Sub(f.sentAt)
	left := int(ResendAfter/time.Second) - int(elapsed/time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// ResendIn is the number of whole seconds until resend is allowed.
func (f *Flow) ResendIn() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remaining()
}

// Resend restarts the countdown once it has reached zero.
func (f *Flow) Resend() (string, error) {
	contact, err := f.ResendContact()
	if err != nil {
		return "", err
	}
	return contact, f.RestartCountdown()
}

// ResendContact returns the contact to send a new code to once the
// countdown has reached zero. The countdown is left untouched.
func (f *Flow) ResendContact() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageVerify); err != nil {
		return "", err
	}
	if left := f.remaining(); left > 0 {
		return "", apperrors.NewConflict(fmt.Sprintf("resend available in %d seconds", left)).WithKey(KeyResendNotReady)
	}
	return f.contact, nil
}

// RestartCountdown records that a code was just delivered.
func (f *Flow) RestartCountdown() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageVerify); err != nil {
		return err
	}
	f.sentAt = f.now()
	return nil
}

// CheckCode applies the local length rule. It never consults a verifier.
func (f *Flow) CheckCode(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageVerify); err != nil {
		return err
	}
	if fields := f.validator.ValidateVar("code", code, fmt.Sprintf("len=%d", CodeLength)); len(fields) > 0 {
		return apperrors.NewValidation(KeyInvalidCode, "code must be 6 characters", fields...)
	}
	return nil
}

// Verified moves past Verify after the code was accepted: recovery flows
// continue to Reset, the others complete.
func (f *Flow) Verified() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageVerify); err != nil {
		return err
	}
	if f.purpose == model.PurposeRecovery {
		f.stage = model.StageReset
	} else {
		f.stage = model.StageComplete
	}
	return nil
}

// Cancel returns from Verify to Request and forgets the contact and
// countdown. Typed drafts stay with the form.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageVerify); err != nil {
		return err
	}
	f.stage = model.StageRequest
	f.contact = ""
	f.sentAt = time.Time{}
	return nil
}

// Reset validates the new password of a recovery flow and completes it.
func (f *Flow) Reset(reset model.PasswordReset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.requireStage(model.StageReset); err != nil {
		return err
	}
	if fields := f.validator.Validate(reset); len(fields) > 0 {
		return apperrors.NewValidation("validation.invalid", "invalid password", fields...)
	}
	f.stage = model.StageComplete
	return nil
}

func (f *Flow) Snapshot() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	left := f.remaining()
	return FlowState{
		ID:             f.id,
		Purpose:        f.purpose,
		Stage:          f.stage,
		Mode:           f.mode,
		Drafts:         f.drafts,
		Contact:        f.contact,
		ResendIn:       left,
		CanResend:      f.stage == model.StageVerify && left == 0,
		AcceptedTerms:  f.creds.AcceptTerms,
		HasCredentials: f.creds.Password != "",
	}
}

// Mode returns the active contact mode.
func (f *Flow) Mode() model.ContactMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// Contact returns the captured contact while in Verify or later.
func (f *Flow) Contact() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contact
}

func normalizeContact(mode model.ContactMode, value string) string {
	value = strings.TrimSpace(value)
	if mode == model.ContactEmail {
		return strings.ToLower(value)
	}
	return value
}
