package tunnel

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"reflect"
	"runtime"
	"strconv"
	"strings"

	log "github.com/Lafeng/streamchat/glog"
	"github.com/go-ini/ini"
	"github.com/kardianos/osext"
)

const (
	CF_CHAT     = "streamchat"
	CONFIG_NAME = "streamchat.ini"
)

type chatConf struct {
	Transport string `importable:"tcp"`
	KcpMode   string `importable:"fast"`
	Listen    string `importable:"0.0.0.0"`
	Verbose   int    `importable:"1"`
	Trace     bool   `importable:"true"`
}

func (c *chatConf) validate() error {
	switch c.Transport {
	case "tcp", "kcp":
	default:
		return CONF_ERROR.Apply("Transport=" + c.Transport)
	}
	if c.Transport == "kcp" {
		// parse a probe url to check the mode
		probe := TransportURL("kcp", "localhost", 1, c.KcpMode)
		if _, err := NewTransport(probe, false); err != nil {
			return CONF_ERROR.Apply("KcpMode=" + c.KcpMode)
		}
	}
	if c.Listen == NULL {
		return CONF_MISS.Apply("Listen")
	}
	if err := IsValidHost(c.Listen); err != nil {
		return CONF_ERROR.Apply("Listen=" + c.Listen)
	}
	return nil
}

type ConfigContext struct {
	filepath string
	conf     *chatConf
}

// NewConfigContextFromFile loads the config file. Without a specified file the
// typical paths are searched and built-in defaults are used when none exists.
func NewConfigContextFromFile(specifiedFile string) (*ConfigContext, error) {
	var paths []string
	if specifiedFile == NULL {
		paths = configSearchPaths()
	} else {
		paths = []string{specifiedFile}
	}

	var conf = new(chatConf)
	setFieldsDefaultValue(conf)
	var cc = &ConfigContext{conf: conf}

	for _, f := range paths {
		if f != NULL && !IsNotExist(f) {
			cc.filepath = f
			break
		}
	}
	if cc.filepath == NULL {
		if specifiedFile != NULL {
			return nil, FILE_NOT_FOUND.Apply(specifiedFile)
		}
		if log.V(log.LV_CONFIG) {
			log.Infof("Not found `%s` in [ %s ], use defaults\n", CONFIG_NAME, strings.Join(paths, "; "))
		}
		return cc, nil
	}

	iniInstance, err := ini.Load(cc.filepath)
	if err != nil {
		return nil, CONF_ERROR.Apply(err)
	}
	sec, err := iniInstance.GetSection(CF_CHAT)
	if err != nil {
		return nil, CONF_MISS.Apply(fmt.Sprintf("[%s] in %s", CF_CHAT, cc.filepath))
	}
	if err = sec.MapTo(conf); err != nil {
		return nil, CONF_ERROR.Apply(err)
	}
	if err = conf.validate(); err != nil {
		return nil, err
	}
	if log.V(log.LV_CONFIG) {
		log.Infof("Loaded config %s %+v\n", cc.filepath, *conf)
	}
	return cc, nil
}

func configSearchPaths() []string {
	var paths = []string{CONFIG_NAME} // cwd
	// same path with exe
	if ef, err := osext.ExecutableFolder(); err == nil {
		paths = append(paths, filepath.Join(ef, CONFIG_NAME))
	}
	// home
	var home string
	if u, err := user.Current(); err == nil {
		home = u.HomeDir
	} else {
		home = os.Getenv("HOME")
	}
	if home != NULL {
		paths = append(paths, filepath.Join(home, CONFIG_NAME))
	}
	// etc
	if runtime.GOOS != "windows" {
		paths = append(paths, "/etc/streamchat/"+CONFIG_NAME)
	}
	return paths
}

// empty when running on defaults
func (cc *ConfigContext) Filepath() string {
	return cc.filepath
}

func (cc *ConfigContext) LogV() int {
	return cc.conf.Verbose
}

func (cc *ConfigContext) Trace() bool {
	return cc.conf.Trace
}

// command line overrides
func (cc *ConfigContext) SetVerbose(v int) {
	cc.conf.Verbose = v
}

func (cc *ConfigContext) SetTrace(trace bool) {
	cc.conf.Trace = trace
}

func (cc *ConfigContext) UseKcp() {
	cc.conf.Transport = "kcp"
}

// ServerTransport binds the configured Listen host on port.
func (cc *ConfigContext) ServerTransport(port int) (*Transport, error) {
	uri := TransportURL(cc.conf.Transport, cc.conf.Listen, port, cc.conf.KcpMode)
	return NewTransport(uri, true)
}

func (cc *ConfigContext) ClientTransport(host string, port int) (*Transport, error) {
	if err := IsValidHost(host); err != nil {
		return nil, CONF_ERROR.Apply(err)
	}
	uri := TransportURL(cc.conf.Transport, host, port, cc.conf.KcpMode)
	return NewTransport(uri, false)
}

// public for external handler
func CreateConfigTemplate(file string) (err error) {
	var f *os.File
	if file == NULL {
		f = os.Stdout
	} else {
		f, err = os.OpenFile(file, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
		if err != nil {
			return
		}
		defer f.Close()
	}
	defer f.Sync()

	var conf = new(chatConf)
	setFieldsDefaultValue(conf)

	iniInst := ini.Empty()
	sec, _ := iniInst.NewSection(CF_CHAT)
	sec.Comment = strings.TrimSpace(_CHAT_CONF_HEADER)
	if err = sec.ReflectFrom(conf); err != nil {
		return
	}
	sec.Key("Transport").Comment = "tcp or kcp"
	sec.Key("KcpMode").Comment = "normal, fast, turbo or custom/nodelay,interval,resend,nc"
	sec.Key("Listen").Comment = "bind address of server mode"
	sec.Key("Trace").Comment = "show key exchange and cipher traces"

	_, err = iniInst.WriteTo(f)
	if err == nil && file != NULL {
		if addr := findFirstUnicastAddress(); addr != NULL {
			fmt.Fprintf(f, _NOTICE_ADDR, addr)
		}
	}
	return
}

// set default values by field tag
func setFieldsDefaultValue(str interface{}) {
	typ := reflect.TypeOf(str)
	val := reflect.ValueOf(str)
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
		val = val.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		ft := typ.Field(i)
		fv := val.Field(i)
		imp := ft.Tag.Get("importable")
		if !ft.Anonymous && imp != NULL {
			k := fv.Kind()
			switch k {
			case reflect.String:
				fv.SetString(imp)
			case reflect.Int:
				intVal, err := strconv.ParseInt(imp, 10, 0)
				if err == nil {
					fv.SetInt(intVal)
				}
			case reflect.Bool:
				boolVal, err := strconv.ParseBool(imp)
				if err == nil {
					fv.SetBool(boolVal)
				}
			default:
				panic(fmt.Errorf("unsupported %v", k))
			}
		}
	}
}

const _CHAT_CONF_HEADER = `
# -------------------------------------------------
#   streamchat configuration
#   command line options take precedence
# -------------------------------------------------
`

const _NOTICE_ADDR = `
# +-----------------------------------------------------------------+
#   Peers on other hosts may reach this one at %s
# +-----------------------------------------------------------------+
`
