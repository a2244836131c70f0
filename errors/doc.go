/*
Package errors provides semantic error types for collectionstore.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound        = errors.New("document not found")
	    ErrAlreadyExists   = errors.New("document already exists")
	    ErrInvalidInput    = errors.New("invalid input")
	    ErrConditionFailed = errors.New("condition check failed")
	    ErrClientInit      = errors.New("client initialization failed")
	    ErrHandleClosed    = errors.New("client handle closed")
	    ErrUnsupported     = errors.New("operation not supported by backend")
	)

Usage:

	// Update reports a missing document as NotFoundError
	err := users.UpdateInside(ctx, "u1", "settings.theme", "dark")
	if err != nil {
	    if errors.IsNotFound(err) {
	        return fmt.Errorf("user %s does not exist", "u1")
	    }
	    return err
	}

	// Initialization failures carry the attempt number
	var initErr *errors.InitError
	if stderrors.As(err, &initErr) {
	    log.Printf("attempt %d failed: %v", initErr.Attempt, initErr.Err)
	}

	// Create typed errors
	err := errors.NewNotFoundError("users", "u1")
	err := errors.NewValidationError("email", "invalid format")
	err := errors.NewConditionFailedError("update", "revision mismatch")

The error types implement the error interface and support wrapping,
making them compatible with Go's standard error handling patterns.
*/
package errors
