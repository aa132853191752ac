package sign

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sagarc03/stowry"
)

// AWS Signature V4 query parameters.
const (
	ParamAmzAlgorithm     = "X-Amz-Algorithm"
	ParamAmzCredential    = "X-Amz-Credential"
	ParamAmzDate          = "X-Amz-Date"
	ParamAmzExpires       = "X-Amz-Expires"
	ParamAmzSignedHeaders = "X-Amz-SignedHeaders"
	ParamAmzSignature     = "X-Amz-Signature"
)

const (
	awsAlgorithm       = "AWS4-HMAC-SHA256"
	awsRequestSuffix   = "aws4_request"
	awsUnsignedPayload = "UNSIGNED-PAYLOAD"
)

// AWSScheme implements AWS Signature V4 query authentication so stock S3
// client libraries can presign against the gateway. It exists purely for
// interoperability; the native scheme is preferred where both ends are
// ours.
type AWSScheme struct {
	region  string
	service string
}

// NewAWSScheme creates the V4 scheme for one region and service name,
// conventionally "s3". Credentials scoped to any other region or service
// are rejected during Parse.
func NewAWSScheme(region, service string) *AWSScheme {
	return &AWSScheme{region: region, service: service}
}

func (a *AWSScheme) Name() string { return "aws-v4" }

func (a *AWSScheme) Presigned(query url.Values) bool {
	return query.Get(ParamAmzSignature) != ""
}

func (a *AWSScheme) Sign(req Request, key stowry.AccessKey, host string) (url.Values, error) {
	region := key.Region
	if region == "" {
		region = a.region
	}
	if region != a.region {
		return nil, fmt.Errorf("aws-v4: key region %q does not match scheme region %q", key.Region, a.region)
	}

	dateStamp := req.IssuedAt.Format(DateFormat)
	credential := strings.Join([]string{key.ID, dateStamp, a.region, a.service, awsRequestSuffix}, "/")

	headers := http.Header{}
	headers.Set("Host", host)
	if req.ContentType != "" {
		headers.Set("Content-Type", req.ContentType)
	}
	signed := signedHeaderNames(headers)

	query := url.Values{}
	query.Set(ParamAmzAlgorithm, awsAlgorithm)
	query.Set(ParamAmzCredential, credential)
	query.Set(ParamAmzDate, req.IssuedAt.Format(DateTimeFormat))
	query.Set(ParamAmzExpires, strconv.Itoa(int(req.Expires/time.Second)))
	query.Set(ParamAmzSignedHeaders, signed)

	tok := &Token{
		AccessKeyID:   key.ID,
		IssuedAt:      req.IssuedAt,
		SignedHeaders: signed,
		Region:        a.region,
		Service:       a.service,
	}
	query.Set(ParamAmzSignature, a.Signature(tok, req.Method, req.Path(), query, headers, key.Secret))

	return query, nil
}

func (a *AWSScheme) Parse(query url.Values) (*Token, error) {
	algorithm := query.Get(ParamAmzAlgorithm)
	credential := query.Get(ParamAmzCredential)
	date := query.Get(ParamAmzDate)
	expires := query.Get(ParamAmzExpires)
	signedHeaders := query.Get(ParamAmzSignedHeaders)
	signature := query.Get(ParamAmzSignature)

	if algorithm == "" || credential == "" || date == "" ||
		expires == "" || signedHeaders == "" || signature == "" {
		return nil, fmt.Errorf("aws-v4: missing required signature parameters: %w", stowry.ErrUnauthorized)
	}

	if algorithm != awsAlgorithm {
		return nil, fmt.Errorf("aws-v4: invalid algorithm %q: %w", algorithm, stowry.ErrUnauthorized)
	}

	issuedAt, err := time.Parse(DateTimeFormat, date)
	if err != nil {
		return nil, fmt.Errorf("aws-v4: invalid %s: %w", ParamAmzDate, stowry.ErrUnauthorized)
	}

	seconds, err := strconv.Atoi(expires)
	if err != nil {
		return nil, fmt.Errorf("aws-v4: invalid %s: %w", ParamAmzExpires, stowry.ErrUnauthorized)
	}

	credParts := strings.Split(credential, "/")
	if len(credParts) != 5 {
		return nil, fmt.Errorf("aws-v4: invalid credential format: %w", stowry.ErrUnauthorized)
	}
	if credParts[4] != awsRequestSuffix {
		return nil, fmt.Errorf("aws-v4: invalid credential terminator: %w", stowry.ErrUnauthorized)
	}
	if credParts[1] != issuedAt.Format(DateFormat) {
		return nil, fmt.Errorf("aws-v4: credential date does not match %s: %w", ParamAmzDate, stowry.ErrUnauthorized)
	}
	if credParts[2] != a.region {
		return nil, fmt.Errorf("aws-v4: credential region %q does not match %q: %w", credParts[2], a.region, stowry.ErrUnauthorized)
	}
	if credParts[3] != a.service {
		return nil, fmt.Errorf("aws-v4: credential service %q does not match %q: %w", credParts[3], a.service, stowry.ErrUnauthorized)
	}

	return &Token{
		AccessKeyID:   credParts[0],
		IssuedAt:      issuedAt,
		Expires:       time.Duration(seconds) * time.Second,
		Signature:     signature,
		SignedHeaders: signedHeaders,
		Region:        credParts[2],
		Service:       credParts[3],
	}, nil
}

// Signature implements the V4 computation: a canonical request hashed into
// a string to sign, signed with the date, region, service, aws4_request
// derivation chain. The payload is always UNSIGNED-PAYLOAD; presigned URLs
// cannot know their body in advance.
func (a *AWSScheme) Signature(tok *Token, method, path string, query url.Values, headers http.Header, secret string) string {
	canonical := strings.Join([]string{
		method,
		EncodePath(path),
		canonicalQuery(query, ParamAmzSignature),
		canonicalHeaders(headers, tok.SignedHeaders),
		tok.SignedHeaders,
		awsUnsignedPayload,
	}, "\n")

	dateStamp := tok.IssuedAt.Format(DateFormat)
	scope := strings.Join([]string{dateStamp, tok.Region, tok.Service, awsRequestSuffix}, "/")

	stringToSign := strings.Join([]string{
		awsAlgorithm,
		tok.IssuedAt.Format(DateTimeFormat),
		scope,
		sha256Hex(canonical),
	}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(tok.Region))
	kService := hmacSHA256(kRegion, []byte(tok.Service))
	kSigning := hmacSHA256(kService, []byte(awsRequestSuffix))

	return hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))
}
