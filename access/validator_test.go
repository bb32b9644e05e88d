// Copyright 2024 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2024 Institute of the Czech National Corpus,
//                Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package access

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"scilogproc/catalog"
	"scilogproc/load/accesslog"
	"scilogproc/robots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	browserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"
	googleAgent  = "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)"
)

func mkLine(request, agent string) string {
	return fmt.Sprintf(
		`= 200.136.72.10 - - [30/Dec/2012:23:59:57 -0200] "%s" 200 9218 "-" "%s"`,
		request, agent,
	)
}

func testJournals() []catalog.Journal {
	return []catalog.Journal{
		{Acronym: "rsp", ScieloISSN: "0034-8910", Title: "Revista de Saúde Pública"},
		{Acronym: "ea", ScieloISSN: "0103-4014", Title: "Estudos Avançados"},
	}
}

func newTestValidator(t *testing.T) *Validator {
	grammar, err := accesslog.NewGrammar(accesslog.DefaultFormat)
	require.NoError(t, err)
	return NewValidator(
		catalog.NewLookupTable("scl", testJournals()),
		robots.NewFilter([]string{"googlebot", "bingbot", "crawl[a-z]*"}),
		grammar,
		Options{},
	)
}

type fakeCatalog struct {
	err error
}

func (fc *fakeCatalog) Collections(ctx context.Context) ([]catalog.Collection, error) {
	return []catalog.Collection{{Code: "scl", Name: "Brazil"}}, fc.err
}

func (fc *fakeCatalog) Journals(ctx context.Context, collection string) ([]catalog.Journal, error) {
	return testJournals(), fc.err
}

func TestLegacyArticleView(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_arttext&pid=S0103-40142000000200013 HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, AccessHTML, rec.AccessType)
	assert.Equal(t, "S0103-40142000000200013", rec.Code)
	assert.Equal(t, "sci_arttext", rec.Script)
	assert.Equal(t, "200.136.72.10", rec.IP)
	assert.Equal(t, "[30/Dec/2012:23:59:57 -0200]", rec.OriginalDate)
	assert.Equal(t, browserAgent, rec.OriginalAgent)
	assert.Equal(t, "2012-12-30", rec.ISODate)
	assert.Equal(t, "2012-12-30T23:59:57", rec.ISODatetime)
	assert.Equal(t, "30", rec.Day)
	assert.Equal(t, "12", rec.Month)
	assert.Equal(t, "2012", rec.Year)
	assert.Equal(t,
		map[string]string{"script": "sci_arttext", "pid": "S0103-40142000000200013"},
		rec.QueryString,
	)
	assert.Empty(t, rec.PDFPath)
	assert.Empty(t, rec.PDFISSN)
	assert.False(t, rec.IsPDF())
}

func TestUnknownPIDPrefix(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_arttext&pid=S9999-99999999999999999 HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrValidationFailure)
	assert.Nil(t, v.ParsedAccess(mkLine(
		"GET /scielo.php?script=sci_arttext&pid=S9999-99999999999999999 HTTP/1.1", browserAgent)))
}

func TestPDFDownload(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine("GET /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, AccessPDF, rec.AccessType)
	assert.Equal(t, "/pdf/rsp/v45n3/en_1234.pdf", rec.PDFPath)
	assert.Equal(t, "/pdf/rsp/v45n3/en_1234.pdf", rec.Code)
	assert.Equal(t, "0034-8910", rec.PDFISSN)
	assert.Empty(t, rec.Script)
	assert.Nil(t, rec.QueryString)
	assert.True(t, rec.IsPDF())
}

func TestRobotRejected(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_arttext&pid=S0103-40142000000200013 HTTP/1.1", googleAgent))
	assert.ErrorIs(t, err, ErrRobot)
	assert.Equal(t, "robot", RejectionReason(err))
}

func TestCleanURLArticle(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine("GET /article/10.1590/abcd/ HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, AccessHTML, rec.AccessType)
	assert.Equal(t, "/article/10.1590/abcd/", rec.Code)
	assert.Empty(t, rec.Script)
}

func TestCleanURLArticleThreeSegments(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine("GET /article/csp/2020.v36n1/e00012/en/ HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "/article/csp/2020.v36n1/e00012/", rec.Code)
}

func TestLegacyFBPEArticle(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_abstract&pid=S0034-89101998000100001 HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "sci_abstract", rec.Script)

	rec, err = v.Validate(mkLine(
		"GET /scielo.php?script=sci_arttext&pid=S0034-8910(98)00000001 HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "S0034-8910(98)00000001", rec.Code)
}

func TestLowercasePID(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_pdf&pid=s0103-40142000000200013 HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "s0103-40142000000200013", rec.Code)
}

func TestIssueTOCShapes(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_issuetoc&pid=S0103-401420000002 HTTP/1.1", browserAgent))
	assert.NoError(t, err)
	_, err = v.Validate(mkLine(
		"GET /scielo.php?script=sci_issuetoc&pid=S0103-40142000000200013 HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrValidationFailure)
}

func TestJournalViews(t *testing.T) {
	v := newTestValidator(t)
	for _, script := range []string{"sci_serial", "sci_issues"} {
		rec, err := v.Validate(mkLine(
			fmt.Sprintf("GET /scielo.php?script=%s&pid=0103-4014&lng=en HTTP/1.1", script),
			browserAgent,
		))
		require.NoError(t, err)
		assert.Equal(t, script, rec.Script)
		assert.Equal(t, "en", rec.QueryString["lng"])
	}
	_, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_serial&pid=S0103-40142000000200013 HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrValidationFailure)
}

func TestUnsupportedScript(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_alphabetic&pid=S0103-40142000000200013 HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrValidationFailure)
	assert.Equal(t, "validation", RejectionReason(err))
}

func TestLastQueryValueWins(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine(
		"GET /scielo.php?script=sci_arttext&pid=S9999-99999999999999999&pid=S0103-40142000000200013&pid= HTTP/1.1",
		browserAgent,
	))
	require.NoError(t, err)
	assert.Equal(t, "S0103-40142000000200013", rec.Code)
}

func TestTruncatedPDFPath(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine("GET /pdf/rsp/v45n3/en HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "/pdf/rsp/v45n3/", rec.PDFPath)
	assert.Equal(t, "0034-8910", rec.PDFISSN)
}

func TestPDFPathWithQuery(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine("GET /pdf/ea/v14n38/v14n38a05.pdf?download=1 HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "/pdf/ea/v14n38/v14n38a05.pdf", rec.PDFPath)
	assert.Equal(t, "0103-4014", rec.PDFISSN)
}

func TestPDFPathWithParams(t *testing.T) {
	v := newTestValidator(t)
	rec, err := v.Validate(mkLine("GET /pdf/rsp/v45n3/a.pdf;jsessionid=X1Y2 HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "/pdf/rsp/v45n3/a.pdf", rec.PDFPath)
	assert.Equal(t, "/pdf/rsp/v45n3/a.pdf", rec.Code)

	rec, err = v.Validate(mkLine("GET /pdf/rsp/v45n3;x/a.pdf HTTP/1.1", browserAgent))
	require.NoError(t, err)
	assert.Equal(t, "/pdf/rsp/v45n3;x/a.pdf", rec.PDFPath)
}

func TestUnknownPDFAcronym(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine("GET /pdf/xyz/v1n1/a01.pdf HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrValidationFailure)
}

func TestNonGetRequest(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine("POST /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrClassificationMiss)
	_, err = v.Validate(mkLine("HEAD /article/10.1590/abcd/ HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrClassificationMiss)
}

func TestUnclassifiedRequest(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate(mkLine("GET /img/logo.png HTTP/1.1", browserAgent))
	assert.ErrorIs(t, err, ErrClassificationMiss)
	assert.Equal(t, "classification", RejectionReason(err))
}

func TestParseFailures(t *testing.T) {
	v := newTestValidator(t)
	_, err := v.Validate("this is not a log line")
	assert.ErrorIs(t, err, ErrParseFailure)
	assert.Equal(t, "parse", RejectionReason(err))

	_, err = v.Validate(`= 200.136.72.10 - - [30/Foo/2012:23:59:57 -0200] "GET /pdf/rsp/v45n3/a01.pdf HTTP/1.1" 200 1 "-" "x"`)
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestValidateIsIdempotent(t *testing.T) {
	v := newTestValidator(t)
	line := mkLine("GET /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1", browserAgent)
	rec1, err1 := v.Validate(line)
	rec2, err2 := v.Validate(line)
	assert.NoError(t, err1)
	assert.NoError(t, err2)
	assert.Equal(t, rec1, rec2)
}

func TestConcurrentValidation(t *testing.T) {
	v := newTestValidator(t)
	lines := []string{
		mkLine("GET /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1", browserAgent),
		mkLine("GET /scielo.php?script=sci_arttext&pid=S0103-40142000000200013 HTTP/1.1", browserAgent),
		mkLine("GET /pdf/rsp/v45n3/en_1234.pdf HTTP/1.1", googleAgent),
		mkLine("GET /img/logo.png HTTP/1.1", browserAgent),
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, line := range lines {
				if v.ParsedAccess(line) != nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 40, accepted)
}

func TestConcurrentValidationEmptyCatalog(t *testing.T) {
	grammar, err := accesslog.NewGrammar(accesslog.DefaultFormat)
	require.NoError(t, err)
	v := NewValidator(catalog.NewLookupTable("scl", nil), nil, grammar, Options{})
	line := mkLine("GET /scielo.php?script=sci_arttext&pid=S0103-40142000000200013 HTTP/1.1", browserAgent)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Nil(t, v.ParsedAccess(line))
			}
		}()
	}
	wg.Wait()
}

func TestNewValidatorForCollection(t *testing.T) {
	grammar, err := accesslog.NewGrammar(accesslog.DefaultFormat)
	require.NoError(t, err)
	v, err := NewValidatorForCollection(
		context.Background(), &fakeCatalog{}, "scl", nil, grammar, Options{CounterCompliant: true})
	require.NoError(t, err)
	assert.Equal(t, "scl", v.Collection())
	assert.True(t, v.CounterCompliant())
	assert.NotNil(t, v.ParsedAccess(mkLine("GET /pdf/ea/v14n38/a05.pdf HTTP/1.1", googleAgent)))

	_, err = NewValidatorForCollection(
		context.Background(), &fakeCatalog{}, "xyz", nil, grammar, Options{})
	assert.ErrorIs(t, err, catalog.ErrUnknownCollection)

	_, err = NewValidatorForCollection(
		context.Background(), &fakeCatalog{err: errors.New("service down")}, "scl", nil, grammar, Options{})
	assert.Error(t, err)
}

func TestRejectionReasonOther(t *testing.T) {
	assert.Equal(t, "", RejectionReason(nil))
	assert.Equal(t, "other", RejectionReason(errors.New("foo")))
	err := fmt.Errorf("wrapped: %w", reject(ErrRobot, "x"))
	assert.Equal(t, "robot", RejectionReason(err))
}
