// Package validator provides composable, rule-based validation without
// struct tags or reflection.
//
// Rules are plain values built from small constructor functions; Apply
// executes them and collects every failure into ValidationErrors, so a
// caller sees all problems with a request at once rather than the first one.
//
// # Usage
//
//	err := validator.Apply(
//		validator.RequiredString("title", title),
//		validator.MaxLenString("title", title, 200),
//		validator.InList("priority", priority, allowedPriorities),
//	)
//	if err != nil {
//		ve := validator.ExtractValidationErrors(err)
//		// ve.Fields(), ve.Get("title"), ...
//	}
//
// ValidationErrors implements error and is detectable through errors.As,
// which lets transport layers map it to a 422-style response without this
// package knowing anything about transports.
package validator
