package mount

import "errors"

var (
	// ErrIsADirectory is returned by Add when path names an existing directory.
	ErrIsADirectory = errors.New("mount: path is a directory")
	// ErrAlreadyExists is returned by Mkdir and Mv when the terminal name is taken.
	ErrAlreadyExists = errors.New("mount: path already exists")
	// ErrNotADirectory is returned when a non-terminal path component, or an
	// Ls target, names a file.
	ErrNotADirectory = errors.New("mount: not a directory")
	// ErrNotFound is returned when a path component does not exist.
	ErrNotFound = errors.New("mount: not found")
	// ErrNotAFile is returned by Cat when path names a directory.
	ErrNotAFile = errors.New("mount: not a file")
	// ErrMirrorUnpublished is returned by New when the caller's share is a
	// Mirror with no wrapped secret (spec §4.3).
	ErrMirrorUnpublished = errors.New("mount: bucket not published to this mirror")
	// ErrNotAMember is returned by New when the caller's identity does not
	// appear in the manifest's shares at all.
	ErrNotAMember = errors.New("mount: identity is not a member of this bucket")
	// ErrCannotRemoveLastOwner is returned by RemoveShare when removing the
	// principal would leave the bucket with no Owner.
	ErrCannotRemoveLastOwner = errors.New("mount: cannot remove the last owner")
	// ErrEmptyPath is returned by operations that require a terminal name
	// (Add, Mkdir, Rm, Mv) when given the root path.
	ErrEmptyPath = errors.New("mount: path has no terminal component")
)
