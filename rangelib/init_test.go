package rangelib_test

import (
	"io"

	"github.com/stretchr/testify/mock"
)

const testDataset = `# start,end,country,country name,region,city
1000,2000,US,United States of America,CA,LA
2001,3000,CA,Canada,ON,Toronto
5001,6000,US,United States of America,NY,New York
`

type LoggerMock struct {
	mock.Mock
}

func (m *LoggerMock) LoadInfo(source, msg string) {
	m.Called(source, msg)
}

func (m *LoggerMock) LoadWarning(source, msg string) {
	m.Called(source, msg)
}

func (m *LoggerMock) LoadError(source string, err error) {
	m.Called(source, err)
}

func (m *LoggerMock) LookupError(ip string, err error) {
	m.Called(ip, err)
}

type sliceSource struct {
	rows [][]string
	err  error
}

func (s *sliceSource) Read() ([]string, error) {
	if len(s.rows) == 0 {
		if s.err != nil {
			return nil, s.err
		}

		return nil, io.EOF
	}

	row := s.rows[0]
	s.rows = s.rows[1:]

	return row, nil
}

func newSliceSource(rows ...[]string) *sliceSource {
	return &sliceSource{rows: rows}
}

func exampleRows() [][]string {
	return [][]string{
		{"1000", "2000", "US", "United States of America", "CA", "LA"},
		{"2001", "3000", "CA", "Canada", "ON", "Toronto"},
	}
}
