// Package anki speaks the AnkiConnect action protocol: every call is a POST
// of {action, params, version} to the local control endpoint, answered by
// {result, error}. Duplicate note rejections surface as ErrDuplicate rather
// than failures because the app performs its own de-duplication.
package anki
