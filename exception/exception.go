package exception

import (
	"fmt"
	"runtime"

	log "github.com/Lafeng/streamchat/glog"
)

// injectable
var DEBUG bool

type Exception struct {
	msg     string
	code    int
	warning bool
	origin  *Exception
	cause   error
}

func New(code int, msg string) *Exception {
	return &Exception{msg: msg, code: code}
}

// warning-level exception, the session ends but the program goes on.
func NewW(msg string) *Exception {
	return &Exception{msg: msg, warning: true}
}

func (e *Exception) Error() string {
	return e.msg
}

func (e *Exception) Code() int {
	return e.code
}

func (e *Exception) Warning() bool {
	return e.warning
}

// Apply derives a new exception carrying the appendage in its message.
// An error appendage is kept as the cause.
func (e *Exception) Apply(appendage interface{}) *Exception {
	newE := &Exception{
		msg:     fmt.Sprintf("%s %v", e.msg, appendage),
		code:    e.code,
		warning: e.warning,
		origin:  e.root(),
	}
	if err, y := appendage.(error); y {
		newE.cause = err
	}
	return newE
}

func (e *Exception) root() *Exception {
	if e.origin != nil {
		return e.origin
	}
	return e
}

func (e *Exception) Unwrap() error {
	return e.cause
}

// derived exceptions match their origin
func (e *Exception) Is(target error) bool {
	t, y := target.(*Exception)
	return y && e.root() == t.root()
}

func Detail(err error) string {
	if err != nil && (log.V(1) == true || DEBUG) {
		return fmt.Sprintf("(Error:%T::%s)", err, err)
	}
	return ""
}

// convert recovered value to error
func ErrorOf(re interface{}) (error, bool) {
	if re == nil {
		return nil, false
	}
	switch rex := re.(type) {
	case error:
		return rex, true
	default:
		return fmt.Errorf("%v", re), true
	}
}

// if ( [re] != nil OR [err] !=nil ) then return true
// and set [err] to [re] if [re] != nil
func Catch(re interface{}, err *error) bool {
	ex, y := ErrorOf(re)
	if y {
		// print recovered error
		if DEBUG || bool(log.V(log.LV_ERR_STACK)) {
			buf := make([]byte, 1600)
			n := runtime.Stack(buf, false)
			errStack := ex.Error() + "\n"
			errStack += string(buf[:n])
			log.DirectPrintln(errStack)
		}
		if err != nil {
			*err = ex
		}
		return true
	}
	return err != nil && *err != nil
}

// Spawn replaces *ePtr with a new exception formatted by format/args,
// keeping the original as the cause.
func Spawn(ePtr *error, format string, args ...interface{}) error {
	var err error
	if err = *ePtr; err == nil {
		return nil
	}
	e := &Exception{msg: fmt.Sprintf(format, args...), cause: err}
	if log.V(log.LV_ERR_DETAIL) {
		e.msg += " " + err.Error()
	}
	*ePtr = e
	return e
}
