package site

// StatusFor exposes the error to status mapping to external tests.
var StatusFor = statusFor
