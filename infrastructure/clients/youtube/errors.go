package youtube

import (
	"context"
	"errors"
	"net/http"

	"social-publisher/domain/model"

	"google.golang.org/api/googleapi"
)

// classifyResponse maps a non-2xx provider response onto the publish error
// taxonomy by inspecting the structured error body. Unknown reasons fall
// through to ProviderError with the provider's message unmodified.
func classifyResponse(resp *http.Response) error {
	gerr := googleapi.CheckResponse(resp)
	if gerr == nil {
		return nil
	}
	apiErr := &googleapi.Error{}
	if !errors.As(gerr, &apiErr) {
		return model.WrapPublishError(model.ErrProviderError, gerr.Error(), gerr)
	}
	msg := apiErr.Message
	if msg == "" {
		msg = gerr.Error()
	}
	for _, item := range apiErr.Errors {
		switch item.Reason {
		case "youtubeSignupRequired", "channelNotFound", "channelClosed", "channelSuspended":
			return model.WrapPublishError(model.ErrPermissionDenied, msg, gerr)
		case "invalidPublishAt", "invalidScheduledPublishTime":
			// the provider enforces its own ~15 minute minimum lead time
			return model.WrapPublishError(model.ErrSchedulingInvalid, msg, gerr)
		case "authError", "invalidCredentials", "invalid_grant", "unauthorized":
			return model.WrapPublishError(model.ErrAuthDenied, msg, gerr)
		}
	}
	if apiErr.Code == http.StatusUnauthorized {
		return model.WrapPublishError(model.ErrAuthDenied, msg, gerr)
	}
	return model.WrapPublishError(model.ErrProviderError, msg, gerr)
}

// transportError maps a failed round trip onto the taxonomy. A blown caller
// deadline mid-transfer means the upload is incomplete; the provider expires
// the session on its own, so no cleanup is attempted.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.WrapPublishError(model.ErrUploadIncomplete, "upload deadline exceeded", err)
	}
	return model.WrapPublishError(model.ErrProviderError, err.Error(), err)
}
