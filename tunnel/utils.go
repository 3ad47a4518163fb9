package tunnel

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/Lafeng/streamchat/exception"
)

const SIZE_UNIT = "BKMG"

var (
	FILE_NOT_FOUND       = exception.NewW("File not found")
	UNRECOGNIZED_SYMBOLS = exception.NewW("Unrecognized symbols")
	CONF_MISS            = exception.NewW("Missed config")
	CONF_ERROR           = exception.NewW("Error config")
)

func IsNotExist(file string) bool {
	_, err := os.Stat(file)
	return os.IsNotExist(err)
}

func i64HumanSize(size int64) string {
	var i = 0
	for ; i < 3; i++ {
		if size < 1024 {
			break
		}
		size = size >> 10
	}
	return strconv.FormatInt(size, 10) + string(SIZE_UNIT[i])
}

func dumpHex(title string, byteArray []byte) {
	fmt.Println("---DUMP-BEGIN-->", title)
	fmt.Print(hex.Dump(byteArray))
	fmt.Println("---DUMP-END-->", title)
}

// "1,2,3" -> [1 2 3], exactly n items
func toIntArray(str string, n int) ([]int, error) {
	var parts = strings.Split(str, ",")
	if len(parts) != n {
		return nil, UNRECOGNIZED_SYMBOLS.Apply(str)
	}
	var arr = make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, UNRECOGNIZED_SYMBOLS.Apply(p)
		}
		arr[i] = v
	}
	return arr, nil
}

// "48 65 6C" form
func hexOf(b []byte) string {
	return fmt.Sprintf("% X", b)
}

// printable ASCII kept, everything else becomes '.'
func printableOf(b []byte) string {
	var buf = make([]byte, len(b))
	for i, c := range b {
		if c >= 0x20 && c <= 0x7e {
			buf[i] = c
		} else {
			buf[i] = '.'
		}
	}
	return string(buf)
}
