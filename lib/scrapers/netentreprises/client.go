// client.go holds the http session shared by every request of a run, it knows
// nothing about the declaration service itself.

package netentreprises

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"netentreprise-backend/lib/assert"
	"netentreprise-backend/lib/portalerr"
	"netentreprise-backend/lib/restyutil"
	"netentreprise-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/time/rate"
)

const (
	report_client_get   = "client.get"
	report_client_post  = "client.post"
	report_client_parse = "client.parse"
)

const (
	DefaultLoginURL       = "https://www.net-entreprises.fr/"
	DefaultServiceBaseURL = "https://portail.net-entreprises.fr/priv/"
	DefaultDeclarationURL = "https://www.ti.urssaf.fr/"
)

var DefaultAllowedDomains = []string{
	"net-entreprises.fr",
	"net-entreprise.fr",
	"urssaf.fr",
}

type Options struct {
	// defaults to DefaultLoginURL
	LoginURL string
	// defaults to DefaultServiceBaseURL
	ServiceBaseURL string
	// base of the declaration listing and consultation actions,
	// defaults to DefaultDeclarationURL
	DeclarationURL string
	// redirects are only followed to these domains (and their subdomains),
	// defaults to DefaultAllowedDomains
	AllowedDomains []string
	// defaults to 2
	RequestsPerSecond float64
	// defaults to 30 seconds
	Timeout time.Duration
	// if non-nil, every request/response pair is dumped to it
	Dump restyutil.InstrumentOutput
}

// Client is a logged in (or not yet logged in) session on the portal, the
// session lives in its cookie jar.
type Client struct {
	Http           *resty.Client
	LoginURL       *url.URL
	ServiceBaseURL *url.URL
	DeclarationURL *url.URL

	tel telemetry.API
}

// Page is a parsed html response along with the url it was served from
// after redirects.
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

func NewClient(opts Options, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("netentreprises", tel)

	if opts.LoginURL == "" {
		opts.LoginURL = DefaultLoginURL
	}
	if opts.ServiceBaseURL == "" {
		opts.ServiceBaseURL = DefaultServiceBaseURL
	}
	if opts.DeclarationURL == "" {
		opts.DeclarationURL = DefaultDeclarationURL
	}
	if len(opts.AllowedDomains) == 0 {
		opts.AllowedDomains = DefaultAllowedDomains
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 2
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}

	loginURL, err := url.Parse(opts.LoginURL)
	if err != nil {
		return nil, fmt.Errorf("parse login url: %w", err)
	}
	serviceBaseURL, err := url.Parse(opts.ServiceBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse service url: %w", err)
	}
	declarationURL, err := url.Parse(opts.DeclarationURL)
	if err != nil {
		return nil, fmt.Errorf("parse declaration url: %w", err)
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(15),
		domainSuffixRedirectPolicy(opts.AllowedDomains),
	)
	httpClient.SetTimeout(opts.Timeout)

	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 2)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "netentreprise-backend/lib/scrapers/netentreprises", tel)
	restyutil.InstrumentClient(httpClient, opts.Dump)

	return &Client{
		Http:           httpClient,
		LoginURL:       loginURL,
		ServiceBaseURL: serviceBaseURL,
		DeclarationURL: declarationURL,
		tel:            tel,
	}, nil
}

func domainSuffixRedirectPolicy(domains []string) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, _ []*http.Request) error {
		host := strings.ToLower(req.URL.Hostname())
		for _, domain := range domains {
			domain = strings.ToLower(domain)
			if host == domain || strings.HasSuffix(host, "."+domain) {
				return nil
			}
		}
		return fmt.Errorf("%w: redirect to %s is not allowed", portalerr.ErrUnexpectedResponse, host)
	})
}

// Get fetches and parses a page.
func (c *Client) Get(ctx context.Context, target string) (Page, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		c.tel.ReportBroken(report_client_get, err, target)
		return Page{}, wrapRequestError(err)
	}
	return c.parse(res)
}

// PostForm posts the values of the form latin-1 encoded, the way a browser
// submits a form of an ISO-8859-1 page.
func (c *Client) PostForm(ctx context.Context, target string, values url.Values, headers map[string]string) (Page, error) {
	encoded, err := encodeLatin1(values)
	if err != nil {
		return Page{}, err
	}
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetFormDataFromValues(encoded).
		Post(target)
	if err != nil {
		c.tel.ReportBroken(report_client_post, err, target)
		return Page{}, wrapRequestError(err)
	}
	return c.parse(res)
}

// a refused redirect already carries its kind
func wrapRequestError(err error) error {
	if errors.Is(err, portalerr.ErrUnexpectedResponse) {
		return err
	}
	return fmt.Errorf("%w: %w", portalerr.ErrTransport, err)
}

func (c *Client) parse(res *resty.Response) (Page, error) {
	finalURL := res.RawResponse.Request.URL
	if res.StatusCode() >= 400 {
		err := fmt.Errorf("%w: status %s from %s", portalerr.ErrUnexpectedResponse, res.Status(), finalURL)
		c.tel.ReportWarning(report_client_parse, err)
		return Page{}, err
	}

	body, err := decodeBody(res.Header().Get("content-type"), res.Body())
	if err != nil {
		return Page{}, fmt.Errorf("%w: decode body: %w", portalerr.ErrUnexpectedResponse, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Page{}, fmt.Errorf("%w: parse html: %w", portalerr.ErrUnexpectedResponse, err)
	}
	doc.Url = finalURL
	return Page{URL: finalURL, Doc: doc}, nil
}

// the portal serves ISO-8859-1 unless it says otherwise
func decodeBody(contentType string, body []byte) ([]byte, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err == nil && strings.EqualFold(params["charset"], "utf-8") {
		return body, nil
	}
	return charmap.ISO8859_1.NewDecoder().Bytes(body)
}

func encodeLatin1(values url.Values) (url.Values, error) {
	encoder := charmap.ISO8859_1.NewEncoder()
	out := url.Values{}
	for name, list := range values {
		for _, v := range list {
			encoded, err := encoder.String(v)
			if err != nil {
				return nil, fmt.Errorf("encode form value of %s: %w", name, err)
			}
			out.Add(name, encoded)
		}
	}
	return out, nil
}

// Action returns the url of a declaration service action, ex. "action.histo_netmicro".
func (c *Client) Action(name string) string {
	return c.DeclarationURL.JoinPath(name).String()
}

// Resolve resolves `ref` against the url of the page.
func (p Page) Resolve(ref string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	return p.URL.ResolveReference(parsed), nil
}
