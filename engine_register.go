package identity

import (
	"context"

	"github.com/inkhaven/identity/internal"
	"github.com/inkhaven/identity/internal/flows"
	"github.com/inkhaven/identity/store"
)

// Register creates a new account, stores its profile image, and
// dispatches the verification mail. The returned account is sanitized.
//
// Conflicts report the offending field with fixed precedence: email,
// then phone, then userName.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	if e == nil || e.store == nil || e.uploader == nil {
		return nil, ErrEngineNotReady
	}

	result := flows.RunRegister(ctx, flows.RegisterArgs{
		Email:            input.Email,
		UserName:         input.UserName,
		Password:         input.Password,
		Phone:            input.Phone,
		FullName:         input.FullName,
		Bio:              input.Bio,
		Location:         input.Location,
		DateOfBirth:      input.DateOfBirth,
		ImageBody:        input.ImageBody,
		ImageName:        input.ImageName,
		ImageContentType: input.ImageContentType,
		ImageSize:        input.ImageSize,
		ImageAlt:         input.ImageAlt,
	}, e.registerDeps())

	switch result.Failure {
	case flows.RegisterFailureNone:
		e.metricInc(MetricRegisterSuccess)
		e.emitAudit(ctx, AuditRegister, result.Account.ID, result.Account.Email, true, nil, nil)
		return result.Account, nil

	case flows.RegisterFailureValidation:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, AuditRegister, "", input.Email, false, result.Err, map[string]string{
			"reason": "validation",
			"field":  result.Field,
		})
		return nil, &ValidationError{Field: result.Field, Reason: result.Err.Error()}

	case flows.RegisterFailureConflict:
		e.metricInc(MetricRegisterConflict)
		e.emitAudit(ctx, AuditRegister, "", input.Email, false, result.Err, map[string]string{
			"reason": "conflict",
			"field":  result.Field,
		})
		return nil, &ConflictError{Field: result.Field}

	case flows.RegisterFailureUpload:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, AuditRegister, "", input.Email, false, result.Err, map[string]string{
			"reason": "upload",
		})
		return nil, ErrUploadFailed

	default:
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, AuditRegister, "", input.Email, false, result.Err, nil)
		return nil, ErrStoreUnavailable
	}
}

func (e *Engine) registerDeps() flows.RegisterDeps {
	return flows.RegisterDeps{
		Store:                e.store,
		HashPassword:         e.passwordHash.Hash,
		NewVerificationToken: internal.NewVerificationToken,
		UploadImage:          e.uploadProfileImage,
		SendVerificationMail: e.sendVerificationMail,
		NotFound:             store.ErrNotFound,
	}
}
