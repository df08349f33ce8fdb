package dataprocessing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bwRow renders a 13 cell BW export row.
func bwRow(employee, alt, date, version, hours string) string {
	cells := []string{"K1", "P1", "", "", "", employee, alt, date, "", "", version, "", hours}
	var b strings.Builder
	b.WriteString("<tr>")
	for _, c := range cells {
		b.WriteString("<td class=\"x\">" + c + "</td>")
	}
	b.WriteString("</tr>\n")
	return b.String()
}

func bwDocument(rows ...string) []byte {
	return []byte("<html><body><table>\n<tr><th>Kostenstelle</th><th>Projekt</th></tr>\n" +
		strings.Join(rows, "") + "</table></body></html>")
}

func TestHTMLExtractor_Positional(t *testing.T) {
	data := bwDocument(
		bwRow("A1", "", "01.04.2025", "FCAST", "8,0"),
		"<tr><td>a</td><td>b</td><td>c</td><td>d</td><td>e</td></tr>\n",
		bwRow("Fremdleistung OPS", "X7", "02.04.2025", "FCAST", "4"),
	)

	result, err := testPipeline().Extract(context.Background(), "bw_export.xls", data, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, result.Format)
	assert.Equal(t, "positional", result.Columns.Method)

	require.Len(t, result.Rows, 2)
	assert.Equal(t, "A1", result.Rows[0].EmployeeID)
	assert.Equal(t, "01.04.2025", result.Rows[0].DateText)
	assert.Equal(t, "8,0", result.Rows[0].HoursText)
	assert.Equal(t, "X7", result.Rows[1].EmployeeID)
	assert.Equal(t, "02.04.2025", result.Rows[1].DateText)
	assert.Greater(t, result.Rows[1].Line, result.Rows[0].Line+1)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "expected at least 13 cells, got 5")
}

func TestHTMLExtractor_StrictForecast(t *testing.T) {
	t.Run("keeps flagged rows", func(t *testing.T) {
		data := bwDocument(
			bwRow("A1", "", "01.04.2025", "FCAST", "8"),
			bwRow("A1", "", "02.04.2025", "IST", "8"),
		)
		result, err := testPipeline().Extract(context.Background(), "bw.html", data, ExtractOptions{ForecastOnly: true})
		require.NoError(t, err)
		require.Len(t, result.Rows, 1)
		assert.Equal(t, "01.04.2025", result.Rows[0].DateText)
	})

	t.Run("no flagged rows yields nothing", func(t *testing.T) {
		data := bwDocument(
			bwRow("A1", "", "01.04.2025", "IST", "8"),
			bwRow("A1", "", "02.04.2025", "IST", "8"),
		)
		result, err := testPipeline().Extract(context.Background(), "bw.html", data, ExtractOptions{ForecastOnly: true})
		require.NoError(t, err)
		assert.Empty(t, result.Rows)
		assert.Equal(t, []string{"bw.html: forecast filter removed all 2 rows"}, result.Warnings)
	})
}

func TestHTMLExtractor_HeaderTable(t *testing.T) {
	data := []byte(`<table>
<tr><th>Mitarbeiter</th><th>Datum</th><th>Stunden</th></tr>
<tr><td>M&uuml;ller&nbsp;</td><td><b>01.04.2025</b></td><td>7,5</td></tr>
<tr><td>Schmidt</td><td>02.04.2025</td><td>8</td></tr>
</table>`)

	result, err := testPipeline().Extract(context.Background(), "report.htm", data, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "header", result.Columns.Method)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "Müller", result.Rows[0].EmployeeID)
	assert.Equal(t, "01.04.2025", result.Rows[0].DateText)
	assert.Equal(t, "7,5", result.Rows[0].HoursText)
}

func TestHTMLExtractor_MIMEEnvelope(t *testing.T) {
	envelope := "MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/related; boundary=\"part\"\r\n" +
		"\r\n" +
		"--part\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"ignored\r\n" +
		"--part\r\n" +
		"Content-Type: text/html; charset=\"utf-8\"\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"<table><tr><th>Mitarbeiter</th><th>Datum</th><th>Stun=\r\n" +
		"den</th></tr><tr><td class=3D\"c\">A1</td><td>01.04.2025</td><td>8</td></tr></table>\r\n" +
		"--part--\r\n"

	result, err := testPipeline().Extract(context.Background(), "bw_export.xls", []byte(envelope), ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, result.Format)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "A1", result.Rows[0].EmployeeID)
	assert.Equal(t, "8", result.Rows[0].HoursText)
}

func TestHTMLExtractor_NoRows(t *testing.T) {
	_, err := testPipeline().Extract(context.Background(), "empty.html", []byte("<html><table></table></html>"), ExtractOptions{})
	assert.ErrorIs(t, err, ErrNoUsableRows)
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "a & b", cellText(" <span>a</span>  &amp;\n b "))
	assert.Equal(t, "8,0", cellText("8,0&nbsp;"))
}

func TestHTMLExtractor_CustomLayout(t *testing.T) {
	layout := BWLayout{MinCells: 5, Forecast: 0, Employee: 1, AltEmployee: 2, Date: 3, Hours: 4, ExternalMarker: "extern"}
	data := []byte("<table>" +
		"<tr><td>FCAST</td><td>A1</td><td></td><td>01.04.2025</td><td>6</td></tr>" +
		"<tr><td>IST</td><td>extern</td><td>Z9</td><td>02.04.2025</td><td>3</td></tr>" +
		"</table>")
	extractor := NewHTMLExtractorWithLayout(layout)

	result, err := extractor.Extract(Input{Name: "custom.html", Data: data}, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, "positional", result.Columns.Method)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "A1", result.Rows[0].EmployeeID)
	assert.Equal(t, "6", result.Rows[0].HoursText)
	assert.Equal(t, "Z9", result.Rows[1].EmployeeID)
	assert.Equal(t, "02.04.2025", result.Rows[1].DateText)

	result, err = extractor.Extract(Input{Name: "custom.html", Data: data}, ExtractOptions{ForecastOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "A1", result.Rows[0].EmployeeID)
}
