package flags

import (
	"io/ioutil"
	"strings"
	"time"

	"github.com/cohere-llc/kbase-transfers/awsutil"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var (
	EnvPrefix = "genomexfer"

	PrefixName      = "prefix"
	LimitName       = "limit"
	OutputListName  = "output-list"
	BucketName      = "bucket"
	StorePrefixName = "store-prefix"
	StoreName       = "store"
	EndpointName    = "endpoint"
	AccessKeyName   = "access-key"
	SecretKeyName   = "secret-key"
	RegionName      = "region"
	ArchiveName     = "archive"
	FTPHostName     = "ftp-host"
	HTTPSURLName    = "https-url"
	WorkersName     = "workers"
	DelayName       = "delay"
	AttemptsName    = "attempts"
	RetryDelayName  = "retry-delay"
	StagingDirName  = "staging-dir"
	ReportName      = "report"

	Prefix      string
	Limit       int
	OutputList  string
	Bucket      string
	StorePrefix string
	Store       string
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Region      string
	Archive     string
	FTPHost     string
	HTTPSURL    string
	Workers     int
	Delay       time.Duration
	Attempts    int
	RetryDelay  time.Duration
	StagingDir  string
	Report      string

	BucketDefault      = "cdm-lake"
	StorePrefixDefault = "tenant-general-warehouse/kbase/datasets/ncbi/"

	PrefixMsg      = "Discover every assembly below this archive subtree instead of reading an accession file.\nEXAMPLES: [GCF | GCF/000/001 | GCA/000/195/005]\nEnvironment Variable: [$GENOMEXFER_PREFIX]"
	LimitMsg       = "Process at most this many accessions or discovered assemblies. 0 means no limit.\nEnvironment Variable: [$GENOMEXFER_LIMIT]"
	OutputListMsg  = "With --prefix, write the discovered accessions to this file, one per line.\nEnvironment Variable: [$GENOMEXFER_OUTPUT-LIST]"
	BucketMsg      = "Destination bucket. It must already exist.\nEnvironment Variable: [$GENOMEXFER_BUCKET]"
	StorePrefixMsg = "Key prefix inside the bucket. It must already hold at least one object.\nEnvironment Variable: [$GENOMEXFER_STORE-PREFIX]"
	StoreMsg       = "Object store client to use.\nEXAMPLES: [s3 | minio]\nEnvironment Variable: [$GENOMEXFER_STORE]"
	EndpointMsg    = "Object store endpoint URL.\nEnvironment Variable: [$MINIO_ENDPOINT_URL]"
	AccessKeyMsg   = "Object store access key.\nEnvironment Variable: [$MINIO_ACCESS_KEY]"
	SecretKeyMsg   = "Object store secret key.\nEnvironment Variable: [$MINIO_SECRET_KEY]"
	RegionMsg      = "Object store region.\nEnvironment Variable: [$MINIO_REGION]"
	ArchiveMsg     = "Protocol used to read the genomes archive.\nEXAMPLES: [ftp | https]\nEnvironment Variable: [$GENOMEXFER_ARCHIVE]"
	FTPHostMsg     = "ADVANCED: Host of the FTP archive, with an optional port.\nEnvironment Variable: [$GENOMEXFER_FTP-HOST]"
	HTTPSURLMsg    = "ADVANCED: Base URL of the HTTPS archive. Point it at a mock-archive server for offline runs.\nEnvironment Variable: [$GENOMEXFER_HTTPS-URL]"
	WorkersMsg     = "How many assemblies to transfer at once. Be considerate of the shared archive.\nEnvironment Variable: [$GENOMEXFER_WORKERS]"
	DelayMsg       = "Pause between two assemblies handled by the same worker.\nEnvironment Variable: [$GENOMEXFER_DELAY]"
	AttemptsMsg    = "ADVANCED: Fetch attempts per file before it is recorded as failed.\nEnvironment Variable: [$GENOMEXFER_ATTEMPTS]"
	RetryDelayMsg  = "ADVANCED: Pause before every fetch attempt after the first.\nEnvironment Variable: [$GENOMEXFER_RETRY-DELAY]"
	StagingDirMsg  = "Directory for temporary files. Defaults to the system temp directory.\nEnvironment Variable: [$GENOMEXFER_STAGING-DIR]"
	ReportMsg      = "Also write the run summary as YAML to this file.\nEnvironment Variable: [$GENOMEXFER_REPORT]"
	DebugMsg       = "Enable debug output. Mostly for developers."
)

// ResolveAccession reads a list of accession entries from a local file or
// from an s3 url. Entries may be separated by newlines, tabs, commas or
// spaces. Duplicates are dropped and the first occurrence keeps its place.
func ResolveAccession(acc string) ([]string, error) {
	var data []byte
	var err error
	if strings.HasPrefix(acc, "http") {
		// we were given a url on s3.
		data, err = awsutil.ReadFile(acc)
	} else {
		data, err = ioutil.ReadFile(acc)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open accession list file at: %s", acc)
	}
	list := SplitAccessions(string(data))
	if len(list) == 0 {
		return nil, errors.New("accession list file was empty")
	}
	return list, nil
}

// SplitAccessions splits raw list contents into unique entries.
func SplitAccessions(raw string) []string {
	seen := make(map[string]bool)
	var list []string
	for _, a := range strings.FieldsFunc(raw, parseAccessions) {
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		list = append(list, a)
	}
	return list
}

func parseAccessions(r rune) bool {
	return r == '\n' || r == '\r' || r == '\t' || r == ',' || r == ' '
}

// FoldEnvVarsIntoFlagValues lets GENOMEXFER_* variables fill in flags.
// The store connection settings are resolved by store.ResolveConfig.
func FoldEnvVarsIntoFlagValues() {
	ResolveString(PrefixName, &Prefix)
	ResolveInt(LimitName, &Limit)
	ResolveString(OutputListName, &OutputList)
	ResolveString(BucketName, &Bucket)
	ResolveString(StorePrefixName, &StorePrefix)
	ResolveString(StoreName, &Store)
	ResolveString(ArchiveName, &Archive)
	ResolveString(FTPHostName, &FTPHost)
	ResolveString(HTTPSURLName, &HTTPSURL)
	ResolveInt(WorkersName, &Workers)
	ResolveDuration(DelayName, &Delay)
	ResolveInt(AttemptsName, &Attempts)
	ResolveDuration(RetryDelayName, &RetryDelay)
	ResolveString(StagingDirName, &StagingDir)
	ResolveString(ReportName, &Report)
}

func ResolveString(name string, value *string) {
	if value == nil {
		return
	}
	if viper.IsSet(name) {
		env := viper.GetString(name)
		if env != "" {
			*value = env
		}
	}
}

func ResolveInt(name string, value *int) {
	if value == nil {
		return
	}
	if viper.IsSet(name) {
		env := viper.GetInt(name)
		if env != 0 {
			*value = env
		}
	}
}

func ResolveBool(name string, value *bool) {
	if value == nil {
		return
	}
	if viper.IsSet(name) {
		env := viper.GetBool(name)
		*value = env
	}
}

func ResolveDuration(name string, value *time.Duration) {
	if value == nil {
		return
	}
	if viper.IsSet(name) {
		env := viper.GetDuration(name)
		if env != 0 {
			*value = env
		}
	}
}
