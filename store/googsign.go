package store

import (
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

const (
	amzDateLayout    = "20060102T150405Z"
	unsignedPayload  = "UNSIGNED-PAYLOAD"
	contentSHAHeader = "X-Amz-Content-Sha256"
)

// gcsTransport signs pack object requests again with Accept-Encoding left out of the signature.
// The GCS XML API verifies every header the sdk signed, and its proxies rewrite Accept-Encoding.
type gcsTransport struct {
	next   http.RoundTripper
	signer *v4.Signer
	creds  aws.CredentialsProvider
	region string
}

func newGcsTransport(next http.RoundTripper, conf aws.Config) *gcsTransport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &gcsTransport{
		next:   next,
		signer: v4.NewSigner(),
		creds:  conf.Credentials,
		region: conf.Region,
	}
}

func (t *gcsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	encoding, hasEncoding := req.Header["Accept-Encoding"]
	req.Header.Del("Accept-Encoding")

	signedAt, err := time.Parse(amzDateLayout, req.Header.Get("X-Amz-Date"))
	if err != nil {
		signedAt = time.Now().UTC()
	}
	creds, err := t.creds.Retrieve(ctx)
	if err != nil {
		return nil, err
	}
	if err = t.signer.SignHTTP(ctx, creds, req, payloadHash(req), "s3", t.region, signedAt); err != nil {
		return nil, err
	}

	if hasEncoding {
		req.Header["Accept-Encoding"] = encoding
	}
	return t.next.RoundTrip(req)
}

// payloadHash prefers the hash computed by the sdk middleware, then the header it sent
func payloadHash(req *http.Request) string {
	if hash := v4.GetPayloadHash(req.Context()); hash != "" {
		return hash
	}
	if hash := req.Header.Get(contentSHAHeader); hash != "" {
		return hash
	}
	return unsignedPayload
}
