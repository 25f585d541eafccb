// Copyright 2025 Cockroach Labs, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package blob

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"path"
	"slices"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/cockroachdb/errors"
	"github.com/cockroachlabs-field/backupfs/internal/env"
)

const (
	// AccountParam is the AWS access key ID.
	AccountParam = "AWS_ACCESS_KEY_ID"
	// SecretParam is the AWS secret access key.
	SecretParam = "AWS_SECRET_ACCESS_KEY"
	// TokenParam is the AWS session token.
	TokenParam = "AWS_SESSION_TOKEN"
	// EndPointParam is the AWS endpoint.
	EndPointParam = "AWS_ENDPOINT"
	// RegionParam is the AWS region.
	RegionParam = "AWS_REGION"
	// UsePathStyleParam is the AWS use path style.
	UsePathStyleParam = "AWS_USE_PATH_STYLE"
	// SkipChecksum is the AWS skip checksum.
	SkipChecksum = "AWS_SKIP_CHECKSUM"
	// SkipTLSVerify is the AWS skip TLS verify.
	SkipTLSVerify = "AWS_SKIP_TLS_VERIFY"

	// DefaultRegion is the default AWS region.
	DefaultRegion = "aws-global"
)

// ValidParams lists the valid parameters for the S3 object storage.
var ValidParams = []string{
	AccountParam, SecretParam, TokenParam, EndPointParam,
	RegionParam, UsePathStyleParam, SkipChecksum, SkipTLSVerify,
}

var (
	// ObfuscatedParams lists the parameters that should be obfuscated.
	ObfuscatedParams = []string{SecretParam, TokenParam}
	// Obfuscated is the value used to obfuscate sensitive parameters.
	Obfuscated = "******"
)

// toggles are the client options tried when probing a store.
var toggles = []string{SkipChecksum, SkipTLSVerify, UsePathStyleParam}

// ErrMissingParam is returned when required parameters are missing.
var ErrMissingParam = errors.New("AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY must be set")

type s3Store struct {
	client  *s3.Client
	params  Params
	dest    string
	root    root
	testing bool
	verbose bool
}

var (
	_ Storage   = &s3Store{}
	_ Describer = &s3Store{}
)

// S3FromEnv creates a new S3 store from the environment.
// It will try to connect to the S3 service using the environment variables provided,
// and adding any parameters that are required.
func S3FromEnv(ctx context.Context, env *env.Env) (Storage, error) {
	creds, ok := lookupEnv(env, []string{AccountParam, SecretParam}, []string{TokenParam, RegionParam})
	if !ok {
		return nil, ErrMissingParam
	}
	if env.Endpoint != "" {
		creds[EndPointParam] = env.Endpoint
	}
	if _, ok := creds[RegionParam]; !ok {
		creds[RegionParam] = DefaultRegion
	}
	initial := &s3Store{
		dest:    env.Path,
		root:    newRoot(env.Path),
		params:  creds,
		testing: env.Testing,
		verbose: env.Verbose,
	}
	return initial.try(ctx)
}

// BucketName implements Storage.
func (s *s3Store) BucketName() string {
	return s.root.bucket
}

// Params implements Describer.
func (s *s3Store) Params() Params {
	params := maps.Clone(s.params)
	for param := range params {
		if slices.Contains(ObfuscatedParams, param) {
			params[param] = Obfuscated
		}
	}
	return params
}

// URL implements Describer.
func (s *s3Store) URL() string {
	res := s.escapeValues()
	res = fmt.Sprintf("s3://%s?%s", s.dest, res)
	return res
}

// Put implements Storage.
func (s *s3Store) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.root.bucket),
		Key:           aws.String(s.root.full(key)),
		Body:          r,
		ContentLength: aws.Int64(size),
	})
	return s3Error(err, key)
}

// Get implements Storage.
func (s *s3Store) Get(ctx context.Context, key string, w io.Writer) (int64, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.root.bucket),
		Key:    aws.String(s.root.full(key)),
	})
	if err != nil {
		return 0, s3Error(err, key)
	}
	defer out.Body.Close()
	return io.Copy(w, out.Body)
}

// Stat implements Storage.
func (s *s3Store) Stat(ctx context.Context, key string) (Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.root.bucket),
		Key:    aws.String(s.root.full(key)),
	})
	if err != nil {
		return Object{}, s3Error(err, key)
	}
	obj := Object{Key: key, Size: aws.ToInt64(out.ContentLength)}
	if out.LastModified != nil {
		obj.LastModified = *out.LastModified
	}
	return obj, nil
}

// List implements Storage.
func (s *s3Store) List(ctx context.Context, prefix string) iter.Seq2[Object, error] {
	return func(yield func(Object, error) bool) {
		pager := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.root.bucket),
			Prefix: aws.String(s.root.full(prefix)),
		})
		for pager.HasMorePages() {
			page, err := pager.NextPage(ctx)
			if err != nil {
				yield(Object{}, s3Error(err, prefix))
				return
			}
			for _, item := range page.Contents {
				obj := Object{
					Key:  s.root.rel(aws.ToString(item.Key)),
					Size: aws.ToInt64(item.Size),
				}
				if item.LastModified != nil {
					obj.LastModified = *item.LastModified
				}
				if !yield(obj, nil) {
					return
				}
			}
		}
	}
}

// Delete implements Storage.
func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.root.bucket),
		Key:    aws.String(s.root.full(key)),
	})
	return s3Error(err, key)
}

// Close implements Storage.
func (s *s3Store) Close() error {
	return nil
}

// s3Error maps missing objects to ErrNotFound.
func s3Error(err error, key string) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return errors.Wrapf(ErrNotFound, "%q", key)
		}
	}
	return errors.Wrapf(err, "s3 %q", key)
}

// addParam adds a parameter to the S3 store.
func (s *s3Store) addParam(key string, value string) error {
	if slices.Contains(ValidParams, key) {
		s.params[key] = value
		return nil
	}
	return errors.Newf("invalid param %q", key)
}

// combinations returns every subset of items, smallest first.
// Subsets of equal size keep the order of items.
func combinations(items []string) [][]string {
	n := len(items)
	res := make([][]string, 0, 1<<n)
	for mask := 0; mask < 1<<n; mask++ {
		subset := []string{}
		for i, item := range items {
			if mask&(1<<i) != 0 {
				subset = append(subset, item)
			}
		}
		res = append(res, subset)
	}
	sort.SliceStable(res, func(i, j int) bool {
		return len(res[i]) < len(res[j])
	})
	return res
}

// candidateConfigs provides a set of candidate configurations for the S3 store.
// The baseline comes first; toggles already enabled are not tried again.
func (s *s3Store) candidateConfigs() iter.Seq[*s3Store] {
	return func(yield func(*s3Store) bool) {
		var available []string
		for _, t := range toggles {
			if s.params[t] != "true" {
				available = append(available, t)
			}
		}
		for _, combo := range combinations(available) {
			alt := &s3Store{
				dest:    s.dest,
				root:    s.root,
				params:  maps.Clone(s.params),
				testing: s.testing,
				verbose: s.verbose,
			}
			for _, option := range combo {
				if err := alt.addParam(option, "true"); err != nil {
					slog.Error("invalid param", slog.Any("error", err))
				}
			}
			if !yield(alt) {
				return
			}
		}
	}
}

// escapeValues provides a URL-encoded query string representation of the S3 store parameters.
func (s *s3Store) escapeValues() string {
	var sb strings.Builder
	first := true
	for key, value := range s.params.Iter() {
		if first {
			first = false
		} else {
			sb.WriteString("&")
		}
		sb.WriteString(fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(value)))
	}
	return sb.String()
}

// lookupEnv retrieves required and optional environment variables from the provided environment.
func lookupEnv(env *env.Env, required []string, optional []string) (map[string]string, bool) {
	res := make(map[string]string)
	for _, v := range required {
		val, ok := env.LookupEnv(v)
		if !ok {
			return nil, false
		}
		res[v] = val
	}
	// Add optional environment variables.
	for _, v := range optional {
		val, ok := env.LookupEnv(v)
		if ok {
			res[v] = val
		}
	}
	return res, true
}

const content = "dummy_data"

// connect builds the S3 client for the store parameters.
func (s *s3Store) connect(ctx context.Context) error {
	var clientMode aws.ClientLogMode
	if s.verbose {
		clientMode |= aws.LogRetries | aws.LogRequestWithBody | aws.LogRequestEventMessage | aws.LogResponse | aws.LogResponseEventMessage | aws.LogSigning
	}
	params := s.params
	var loadOptions []func(options *config.LoadOptions) error
	addLoadOption := func(option config.LoadOptionsFunc) {
		loadOptions = append(loadOptions, option)
	}
	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: params[SkipTLSVerify] == "true"},
		},
	}
	addLoadOption(config.WithHTTPClient(client))
	if params[SkipTLSVerify] == "true" {
		slog.Warn("TLS verification is disabled; use only for testing")
	}
	// Retries belong to the layer above the store.
	addLoadOption(config.WithRetryMaxAttempts(1))
	addLoadOption(config.WithClientLogMode(clientMode))
	// LoadDefaultConfig will always honor env based provided credentials if present.
	if s.testing {
		addLoadOption(config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     params[AccountParam],
				SecretAccessKey: params[SecretParam],
				SessionToken:    params[TokenParam],
			}, nil
		})))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return err
	}
	if params[SkipChecksum] == "true" {
		cfg.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenSupported
		cfg.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenSupported
	}
	s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := params[EndPointParam]; ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		o.Region = params[RegionParam]
		o.UsePathStyle = params[UsePathStyleParam] == "true"
	})
	return nil
}

// probe writes, reads back and deletes a scratch object.
func (s *s3Store) probe(ctx context.Context) error {
	if _, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.root.bucket),
		MaxKeys: aws.Int32(1),
	}); err != nil {
		return errors.Wrap(err, "list objects")
	}
	probeKey := path.Join("_backupfs", uuid.NewString())
	if err := s.Put(ctx, probeKey, strings.NewReader(content), int64(len(content))); err != nil {
		return errors.Wrap(err, "put object")
	}
	var got strings.Builder
	if _, err := s.Get(ctx, probeKey, &got); err != nil {
		// this shouldn't happen, since we just wrote the object
		return errors.Wrap(err, "get object")
	}
	slog.Debug("Successfully read object", slog.String("content", got.String()))
	if got.String() != content {
		return errors.Newf("unexpected content: got %q, want %q", got.String(), content)
	}
	return s.Delete(ctx, probeKey)
}

// try attempts to connect to the S3 store using alternative configurations.
func (s *s3Store) try(ctx context.Context) (Storage, error) {
	for alt := range s.candidateConfigs() {
		slog.Debug("Trying params", slog.Any("env", alt.Params()))
		if err := alt.connect(ctx); err != nil {
			return nil, err
		}
		if err := alt.probe(ctx); err != nil {
			slog.Debug("Probe failed", slog.Any("error", err), slog.Any("env", alt.Params()))
			continue
		}
		slog.Debug("Suggested params", slog.Any("env", alt.Params()))
		return alt, nil
	}
	return nil, errors.Newf("unable to connect to storage provider %q", s.dest)
}
