// Package loaderr defines the typed error conditions a load order can
// raise, plus a stable numeric code for each so that a caller on the
// other side of a narrow boundary (HTTP, FFI, a CLI exit status) can
// branch on the failure without string matching.
package loaderr

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Code is a stable, small-integer classification of an error. Values
// are never renumbered once released; gaps come from codes that were
// retired rather than reused.
type Code uint

const (
	OK                     Code = 0
	WarnLoadOrderMismatch  Code = 2
	FileNotUTF8            Code = 5
	FileNotFound           Code = 6
	FileRenameFailed       Code = 7
	TimestampWriteFailed   Code = 9
	FileParseFailed        Code = 10
	InvalidArgs            Code = 12
	PoisonedLock           Code = 14
	IOError                Code = 15
	PermissionDenied       Code = 16
	TextEncodeFailed       Code = 17
	TextDecodeFailed       Code = 18
	InternalLogicError     Code = 19
	MaxCode                Code = 19
)

// Kind identifies which invariant or operation failed, independent of
// the Code it maps to; several Kinds can share a Code.
type Kind int

const (
	KindInvalidPath Kind = iota
	KindIOError
	KindNoFilename
	KindNotUTF8
	KindDecodeError
	KindEncodeError
	KindPluginParsingError
	KindPluginNotFound
	KindTooManyActivePlugins
	KindDuplicatePlugin
	KindNonMasterBeforeMaster
	KindGameMasterMustLoadFirst
	KindInvalidEarlyLoadingPosition
	KindInvalidPlugin
	KindImplicitlyActivePlugin
	KindUnrepresentedHoist
	KindInstalledPlugin
	KindPermissionDenied
	KindPoisonedLock
	KindInternalLogicError
)

// Error is the concrete error type loadorder operations return for
// validation failures and for text that cannot be encoded. Filesystem
// errors (reading, writing, scanning, restamping) are returned as the
// underlying os errors, which ToCode maps to InternalLogicError. It
// carries enough structured context to reconstruct a specific message
// without re-parsing strings.
type Error struct {
	Kind Kind
	// Plugin, Master, Pos, ExpectedPos, LightCount, NormalCount, Path and
	// Err are populated selectively depending on Kind; a zero value means
	// the field doesn't apply.
	Plugin      string
	Master      string
	Pos         int
	ExpectedPos int
	LightCount  int
	NormalCount int
	Path        string
	Err         error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidPath:
		return fmt.Sprintf("invalid path %q", e.Path)
	case KindIOError:
		return fmt.Sprintf("I/O error involving %q: %v", e.Path, e.Err)
	case KindNoFilename:
		return fmt.Sprintf("path %q has no filename part", e.Path)
	case KindNotUTF8:
		return fmt.Sprintf("%q is not valid UTF-8", e.Path)
	case KindDecodeError:
		return "text could not be decoded from Windows-1252"
	case KindEncodeError:
		return "text could not be encoded in Windows-1252"
	case KindPluginParsingError:
		return fmt.Sprintf("error parsing plugin at %q: %v", e.Path, e.Err)
	case KindPluginNotFound:
		return fmt.Sprintf("plugin %q is not in the load order", e.Plugin)
	case KindTooManyActivePlugins:
		return fmt.Sprintf("maximum active plugins exceeded: %d active normal plugins and %d active light plugins", e.NormalCount, e.LightCount)
	case KindDuplicatePlugin:
		return fmt.Sprintf("plugin list contains more than one instance of %q", e.Plugin)
	case KindNonMasterBeforeMaster:
		return fmt.Sprintf("attempted to load non-master plugin %q before master plugin %q", e.Plugin, e.Master)
	case KindGameMasterMustLoadFirst:
		return fmt.Sprintf("the game's master file %q must load first", e.Plugin)
	case KindInvalidEarlyLoadingPosition:
		return fmt.Sprintf("early-loading plugin %q at position %d, expected position %d", e.Plugin, e.Pos, e.ExpectedPos)
	case KindInvalidPlugin:
		return fmt.Sprintf("plugin file %q is invalid", e.Plugin)
	case KindImplicitlyActivePlugin:
		return fmt.Sprintf("implicitly active plugin %q cannot be deactivated", e.Plugin)
	case KindUnrepresentedHoist:
		return fmt.Sprintf("plugin %q is a master of %q, which will hoist it", e.Plugin, e.Master)
	case KindInstalledPlugin:
		return fmt.Sprintf("plugin %q is installed, so cannot be removed from the load order", e.Plugin)
	case KindPermissionDenied:
		return fmt.Sprintf("permission denied accessing %q", e.Path)
	case KindPoisonedLock:
		return "a thread lock was poisoned"
	case KindInternalLogicError:
		if e.Err != nil {
			return fmt.Sprintf("internal logic error: %v", e.Err)
		}
		return "internal logic error"
	default:
		return "unknown load order error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// code maps each Kind to its stable wire-level Code.
func (e *Error) code() Code {
	switch e.Kind {
	case KindIOError:
		return IOError
	case KindNoFilename, KindInvalidPath:
		return FileNotFound
	case KindNotUTF8:
		return FileNotUTF8
	case KindDecodeError:
		return TextDecodeFailed
	case KindEncodeError:
		return TextEncodeFailed
	case KindPluginParsingError:
		return FileParseFailed
	case KindPermissionDenied:
		return PermissionDenied
	case KindPoisonedLock:
		return PoisonedLock
	case KindInternalLogicError:
		return InternalLogicError
	case KindPluginNotFound, KindTooManyActivePlugins, KindDuplicatePlugin,
		KindNonMasterBeforeMaster, KindGameMasterMustLoadFirst,
		KindInvalidEarlyLoadingPosition, KindInvalidPlugin, KindImplicitlyActivePlugin,
		KindUnrepresentedHoist, KindInstalledPlugin:
		return InvalidArgs
	default:
		return InternalLogicError
	}
}

// ToCode maps any error to its stable Code. Errors not produced by this
// package map to InternalLogicError, since callers on a narrow boundary
// still need some answer.
func ToCode(err error) Code {
	if err == nil {
		return OK
	}
	if le, ok := err.(*Error); ok {
		return le.code()
	}
	if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) > 0 {
		return ToCode(merr.Errors[0])
	}
	return InternalLogicError
}

// Append is a thin wrapper over multierror.Append for collecting several
// independent failures into one error; ToCode classifies the result by
// its first error. No load order operation in this module calls it.
func Append(err error, errs ...error) *multierror.Error {
	return multierror.Append(err, errs...)
}
