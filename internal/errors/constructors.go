package errors

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "playbook file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "playbook could not be parsed").
		WithContext("path", path)
}

func ConfigRequired(field string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "required playbook setting missing").
		WithContext("field", field)
}

func ConfigFieldInvalid(field, reason string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "invalid playbook setting").
		WithContext("field", field).
		WithContext("reason", reason)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Acquisition errors

func AggregationFailed(source string, cause error) *SiteError {
	return Wrap(cause, CategoryAggregation, SeverityFatal, "content aggregation failed").
		WithContext("source", source)
}

func GitFetchError(url string, cause error) *SiteError {
	return WrapRetryable(cause, CategoryGit, SeverityFatal, "git fetch failed").
		WithContext("url", url)
}

func GitAuthError(url string, cause error) *SiteError {
	return Wrap(cause, CategoryGit, SeverityFatal, "git authentication failed").
		WithContext("url", url)
}

func UILoadFailed(bundle string, cause error) *SiteError {
	return Wrap(cause, CategoryUI, SeverityFatal, "UI bundle could not be loaded").
		WithContext("bundle", bundle)
}

// Transform errors

func ConversionFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConversion, SeverityFatal, "document conversion failed").
		WithContext("path", path)
}

func CompositionFailed(path string, cause error) *SiteError {
	return Wrap(cause, CategoryComposition, SeverityFatal, "page composition failed").
		WithContext("path", path)
}

// Output errors

func PublishFailed(destination string, cause error) *SiteError {
	return Wrap(cause, CategoryPublish, SeverityFatal, "site publish failed").
		WithContext("destination", destination)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
