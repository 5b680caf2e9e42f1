package scholar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listingRow(title, href, authors, venue, year, cites string) string {
	return fmt.Sprintf(`<tr class="gsc_a_tr">
		<td class="gsc_a_t">
			<a href="%s" class="gsc_a_at">%s</a>
			<div class="gs_gray">%s</div>
			<div class="gs_gray">%s<span class="gs_oph">, %s</span></div>
		</td>
		<td class="gsc_a_c"><a href="#" class="gsc_a_ac">%s</a></td>
		<td class="gsc_a_y"><span class="gsc_a_h">%s</span></td>
	</tr>`, href, title, authors, venue, year, cites, year)
}

func TestParsePublicationsPage(t *testing.T) {
	html := `<html><body><table><tbody id="gsc_a_b">` +
		listingRow("Deep Residual Learning", "/citations?view_op=view_citation&citation_for_view=abc",
			"K He, X Zhang, S Ren, J Sun", "CVPR", "2016", "1543") +
		listingRow("Attention Is All You Need", "/citations?view_op=view_citation&citation_for_view=def",
			"A Vaswani, N Shazeer", "NeurIPS", "2017", "2201") +
		`</tbody></table></body></html>`

	records, err := ParsePublicationsPage([]byte(html))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Deep Residual Learning", records[0].Title)
	assert.Equal(t, "K He, X Zhang, S Ren, J Sun", records[0].Authors)
	assert.Equal(t, "CVPR", records[0].Venue)
	assert.Equal(t, 2016, records[0].Year)
	assert.Equal(t, 1543, records[0].CitationCount)
	assert.Contains(t, records[0].DetailURL, "citation_for_view=abc")

	assert.Equal(t, "Attention Is All You Need", records[1].Title)
	assert.Equal(t, 2017, records[1].Year)
}

func TestParsePublicationsPageSkipsMalformedRows(t *testing.T) {
	// Zeile ohne Titel-Link wird übersprungen, der Rest bleibt
	html := `<table>` +
		`<tr class="gsc_a_tr"><td class="gsc_a_t"><div class="gs_gray">No Title Here</div></td></tr>` +
		listingRow("Valid Paper", "/x", "A Author", "Some Journal", "2020", "7") +
		`</table>`

	records, err := ParsePublicationsPage([]byte(html))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Valid Paper", records[0].Title)
}

func TestParsePublicationsPageMissingFieldsDefault(t *testing.T) {
	html := `<table><tr class="gsc_a_tr">
		<td class="gsc_a_t"><a href="/x" class="gsc_a_at">Bare Paper</a></td>
	</tr></table>`

	records, err := ParsePublicationsPage([]byte(html))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Bare Paper", records[0].Title)
	assert.Empty(t, records[0].Authors)
	assert.Empty(t, records[0].Venue)
	assert.Zero(t, records[0].Year)
	assert.Zero(t, records[0].CitationCount)
}

func TestExtractYearTakesLastMatch(t *testing.T) {
	assert.Equal(t, 2020, extractYear("NeurIPS 2019 Workshop Proceedings, 2020"))
	assert.Equal(t, 1997, extractYear("Journal of Something, 1997"))
	assert.Equal(t, 0, extractYear("Journal without year"))
	assert.Equal(t, 0, extractYear("page 1834 is not a year? 1834 is below range"))
}

func TestParseProfilePage(t *testing.T) {
	html := `<html><body>
		<div id="gsc_prf_in">Jane Smith</div>
		<div class="gsc_prf_il">Example University</div>
		<div><a class="gsc_prf_inta" href="#">Machine Learning</a><a class="gsc_prf_inta" href="#">Statistics</a></div>
		<table id="gsc_rsb_st"><tbody>
			<tr><td>Citations</td><td>12345</td><td>6789</td></tr>
			<tr><td>h-index</td><td>42</td><td>30</td></tr>
			<tr><td>i10-index</td><td>100</td><td>80</td></tr>
		</tbody></table>
		<div id="gsc_g">
			<span class="gsc_g_t">2021</span><span class="gsc_g_t">2022</span>
			<a href="#" class="gsc_g_a"><span class="gsc_g_al">120</span></a>
			<a href="#" class="gsc_g_a"><span class="gsc_g_al">180</span></a>
		</div>
	</body></html>`

	rec, err := ParseProfilePage([]byte(html))
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith", rec.Name)
	assert.Equal(t, "Example University", rec.Affiliation)
	assert.Equal(t, []string{"Machine Learning", "Statistics"}, rec.Interests)
	assert.Equal(t, 12345, rec.TotalCitations)
	assert.Equal(t, 42, rec.HIndex)
	assert.Equal(t, 100, rec.I10Index)
	assert.Equal(t, map[int]int{2021: 120, 2022: 180}, rec.YearlyCited)
}

func TestParseProfilePageEmpty(t *testing.T) {
	rec, err := ParseProfilePage([]byte("<html><body><p>captcha</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, rec.Name)
}
