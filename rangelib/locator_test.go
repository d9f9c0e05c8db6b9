package rangelib_test

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/9seconds/rangegeo/rangelib"
	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type LocatorTestSuite struct {
	suite.Suite

	fs         afero.Fs
	loggerMock *LoggerMock
	locators   []*rangelib.Locator
}

func (suite *LocatorTestSuite) SetupTest() {
	suite.fs = afero.NewMemMapFs()
	suite.loggerMock = &LoggerMock{}
	suite.locators = nil

	suite.Require().NoError(afero.WriteFile(suite.fs, "/dataset.csv", []byte(testDataset), 0o644))
}

func (suite *LocatorTestSuite) TearDownTest() {
	for _, v := range suite.locators {
		v.Shutdown()
	}

	suite.loggerMock.AssertExpectations(suite.T())
}

func (suite *LocatorTestSuite) Opts(source string) rangelib.LocatorOpts {
	return rangelib.LocatorOpts{
		Source:         source,
		Fs:             suite.fs,
		Logger:         suite.loggerMock,
		WorkerPoolSize: 4,
	}
}

func (suite *LocatorTestSuite) NewLocator(opts rangelib.LocatorOpts) *rangelib.Locator {
	locator, err := rangelib.NewLocator(opts)

	suite.Require().NoError(err)

	suite.locators = append(suite.locators, locator)

	return locator
}

func (suite *LocatorTestSuite) ExpectLoaded(source string, ranges, filtered int) {
	suite.loggerMock.
		On("LoadInfo", source, "dataset was loaded: "+strconv.Itoa(ranges)+" ranges, "+
			strconv.Itoa(filtered)+" filtered out").
		Once()
}

func (suite *LocatorTestSuite) TestLookup() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	location, ok := locator.Lookup("0.0.5.220")

	suite.True(ok)
	suite.Equal(rangelib.Location{Country: "US", Region: "CA", City: "LA"}, location)

	location, ok = locator.Lookup("0.0.7.209")

	suite.True(ok)
	suite.Equal("Toronto", location.City)

	location, ok = locator.Lookup("0.0.19.136")

	suite.False(ok)
	suite.Equal(rangelib.Location{}, location)

	suite.True(locator.LoadResult().OK())
	suite.False(locator.LoadResult().Degraded())
	suite.Equal(3, locator.LoadResult().Ranges)
	suite.Equal(3, locator.Table().Len())
}

func (suite *LocatorTestSuite) TestLookupIncorrectIP() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)
	suite.loggerMock.
		On("LookupError", "999.1.1.1", mock.MatchedBy(func(err error) bool {
			return errors.Is(err, rangelib.ErrParse)
		})).
		Once()

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	_, ok := locator.Lookup("999.1.1.1")

	suite.False(ok)
}

func (suite *LocatorTestSuite) TestLookupIPv4() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	location, ok := locator.LookupIPv4([4]byte{0, 0, 0x13, 0x89})

	suite.True(ok)
	suite.Equal("New York", location.City)

	_, ok = locator.LookupIPv4([4]byte{1, 2, 3, 4})

	suite.False(ok)
}

func (suite *LocatorTestSuite) TestLookupIP() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)
	suite.loggerMock.On("LookupError", "::1", mock.Anything).Once()

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	location, ok := locator.LookupIP(net.IPv4(0, 0, 5, 220))

	suite.True(ok)
	suite.Equal("LA", location.City)

	location, ok = locator.LookupIP(net.ParseIP("::ffff:0.0.5.220"))

	suite.True(ok)
	suite.Equal("LA", location.City)

	_, ok = locator.LookupIP(net.ParseIP("::1"))

	suite.False(ok)
}

func (suite *LocatorTestSuite) TestResolve() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	rng, ok, err := locator.Resolve("0.0.3.232")

	suite.NoError(err)
	suite.True(ok)
	suite.EqualValues(1000, rng.Start)
	suite.EqualValues(2000, rng.End)

	_, ok, err = locator.Resolve("0.0.0.1")

	suite.NoError(err)
	suite.False(ok)

	_, ok, err = locator.Resolve("1.2.3")

	suite.True(errors.Is(err, rangelib.ErrParse))
	suite.False(ok)
}

func (suite *LocatorTestSuite) TestFilter() {
	suite.ExpectLoaded("/dataset.csv", 1, 2)

	opts := suite.Opts("/dataset.csv")
	opts.CountryFilter = []string{"ca"}
	locator := suite.NewLocator(opts)

	_, ok := locator.Lookup("0.0.5.220")

	suite.False(ok)

	location, ok := locator.Lookup("0.0.7.209")

	suite.True(ok)
	suite.Equal("CA", location.Country)
	suite.Equal(2, locator.LoadResult().Filtered)
}

func (suite *LocatorTestSuite) TestEmptyFilter() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)
	suite.loggerMock.
		On("LoadWarning", "/dataset.csv", "country filter is empty, filter will be ignored").
		Once()

	opts := suite.Opts("/dataset.csv")
	opts.CountryFilter = []string{}
	locator := suite.NewLocator(opts)

	_, ok := locator.Lookup("0.0.5.220")

	suite.True(ok)
}

func (suite *LocatorTestSuite) TestHeader() {
	content := "start,end,country,country_name,region,city\n" +
		"1000,2000,US,United States of America,CA,LA\n"

	suite.Require().NoError(afero.WriteFile(suite.fs, "/header.csv", []byte(content), 0o644))
	suite.ExpectLoaded("/header.csv", 1, 0)

	opts := suite.Opts("/header.csv")
	opts.HasHeader = true
	locator := suite.NewLocator(opts)

	suite.Equal(1, locator.LoadResult().Rows)

	_, ok := locator.Lookup("0.0.5.220")

	suite.True(ok)
}

func (suite *LocatorTestSuite) TestHeaderNotSkipped() {
	content := "start,end,country,country_name,region,city\n" +
		"1000,2000,US,United States of America,CA,LA\n"

	suite.Require().NoError(afero.WriteFile(suite.fs, "/header.csv", []byte(content), 0o644))
	suite.loggerMock.On("LoadError", "/header.csv", mock.Anything).Once()

	opts := suite.Opts("/header.csv")
	opts.StrictLoad = true

	_, err := rangelib.NewLocator(opts)

	suite.True(errors.Is(err, rangelib.ErrData))

	var dataErr *rangelib.DataError

	suite.True(errors.As(err, &dataErr))
	suite.Equal(1, dataErr.Line)
}

func (suite *LocatorTestSuite) TestGzip() {
	buf := &bytes.Buffer{}
	writer := gzip.NewWriter(buf)

	_, err := writer.Write([]byte(testDataset))

	suite.Require().NoError(err)
	suite.Require().NoError(writer.Close())
	suite.Require().NoError(afero.WriteFile(suite.fs, "/dataset.csv.gz", buf.Bytes(), 0o644))
	suite.ExpectLoaded("/dataset.csv.gz", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv.gz"))

	location, ok := locator.Lookup("0.0.7.209")

	suite.True(ok)
	suite.Equal("Toronto", location.City)
}

func (suite *LocatorTestSuite) TestDataErrorLine() {
	content := testDataset + "7000,6500,US,United States of America,NY,Albany\n"

	suite.Require().NoError(afero.WriteFile(suite.fs, "/broken.csv", []byte(content), 0o644))
	suite.loggerMock.On("LoadError", "/broken.csv", mock.Anything).Once()

	opts := suite.Opts("/broken.csv")
	opts.StrictLoad = true

	_, err := rangelib.NewLocator(opts)

	var dataErr *rangelib.DataError

	suite.True(errors.As(err, &dataErr))
	suite.Equal(5, dataErr.Line)
}

func (suite *LocatorTestSuite) TestMalformedCSV() {
	content := "1000,2000,US,\"United States,CA,LA\n"

	suite.Require().NoError(afero.WriteFile(suite.fs, "/broken.csv", []byte(content), 0o644))
	suite.loggerMock.On("LoadError", "/broken.csv", mock.Anything).Once()

	opts := suite.Opts("/broken.csv")
	opts.StrictLoad = true

	_, err := rangelib.NewLocator(opts)

	suite.True(errors.Is(err, rangelib.ErrData))
	suite.Contains(err.Error(), "malformed csv")
}

func (suite *LocatorTestSuite) TestDegraded() {
	suite.loggerMock.
		On("LoadError", "/absent.csv", mock.MatchedBy(func(err error) bool {
			return errors.Is(err, rangelib.ErrSource)
		})).
		Once()

	locator := suite.NewLocator(suite.Opts("/absent.csv"))

	suite.True(locator.LoadResult().Degraded())
	suite.True(errors.Is(locator.LoadResult().Err, rangelib.ErrSource))
	suite.Equal(0, locator.Table().Len())

	_, ok := locator.Lookup("0.0.5.220")

	suite.False(ok)

	results, err := locator.ResolveAll(context.Background(), []string{"0.0.5.220"})

	suite.NoError(err)
	suite.False(results[0].Found)
}

func (suite *LocatorTestSuite) TestStrict() {
	suite.loggerMock.On("LoadError", "/absent.csv", mock.Anything).Once()

	opts := suite.Opts("/absent.csv")
	opts.StrictLoad = true

	locator, err := rangelib.NewLocator(opts)

	suite.Nil(locator)
	suite.True(errors.Is(err, rangelib.ErrSource))
	suite.True(errors.Is(err, os.ErrNotExist))
}

func (suite *LocatorTestSuite) TestNoSource() {
	suite.loggerMock.On("LoadError", "", mock.Anything).Once()

	opts := suite.Opts("")
	opts.StrictLoad = true

	_, err := rangelib.NewLocator(opts)

	suite.True(errors.Is(err, rangelib.ErrSource))
}

func (suite *LocatorTestSuite) TestResolveAll() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))
	ips := []string{"0.0.5.220", "0.0.7.209", "0.0.0.1", "incorrect"}

	results, err := locator.ResolveAll(context.Background(), ips)

	suite.NoError(err)
	suite.Len(results, len(ips))

	for i, v := range results {
		suite.Equal(ips[i], v.IP)
	}

	suite.True(results[0].OK())
	suite.Equal("US", results[0].Country.Alpha2Code)
	suite.Equal("USA", results[0].Country.Alpha3Code)
	suite.Equal("LA", results[0].City)
	suite.Equal("0.0.3.232", results[0].Range.Start)
	suite.Equal("0.0.7.208", results[0].Range.End)
	suite.NotEmpty(results[0].Range.Networks)

	suite.True(results[1].OK())
	suite.Equal("CAN", results[1].Country.Alpha3Code)
	suite.Equal("Toronto", results[1].City)

	suite.False(results[2].OK())
	suite.Empty(results[2].Error)
	suite.Nil(results[2].Range)

	suite.False(results[3].OK())
	suite.NotEmpty(results[3].Error)
}

func (suite *LocatorTestSuite) TestResolveAllClosedContext() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))
	ctx, cancel := context.WithCancel(context.Background())

	cancel()

	_, err := locator.ResolveAll(ctx, []string{"0.0.5.220"})

	suite.True(errors.Is(err, rangelib.ErrContextIsClosed))
}

func (suite *LocatorTestSuite) TestShutdown() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	locator.Shutdown()
	locator.Shutdown()

	_, err := locator.ResolveAll(context.Background(), []string{"0.0.5.220"})

	suite.True(errors.Is(err, rangelib.ErrLocatorShutdown))

	_, ok := locator.Lookup("0.0.5.220")

	suite.True(ok)
}

func (suite *LocatorTestSuite) TestUsageStats() {
	suite.ExpectLoaded("/dataset.csv", 3, 0)
	suite.loggerMock.On("LookupError", "incorrect", mock.Anything).Once()

	locator := suite.NewLocator(suite.Opts("/dataset.csv"))

	locator.Lookup("0.0.5.220")
	locator.Lookup("0.0.0.1")
	locator.Lookup("incorrect")

	data, err := locator.UsageStats().MarshalJSON()

	suite.NoError(err)
	suite.Contains(string(data), `"hit_count":1`)
	suite.Contains(string(data), `"miss_count":1`)
	suite.Contains(string(data), `"invalid_count":1`)
	suite.Contains(string(data), `"ranges":3`)
}

func TestLocator(t *testing.T) {
	suite.Run(t, &LocatorTestSuite{})
}

type LookupFileTestSuite struct {
	suite.Suite

	path       string
	loggerMock *LoggerMock
}

func (suite *LookupFileTestSuite) SetupTest() {
	suite.path = filepath.Join(suite.T().TempDir(), "dataset.csv")
	suite.loggerMock = &LoggerMock{}

	suite.Require().NoError(os.WriteFile(suite.path, []byte(testDataset), 0o644))
}

func (suite *LookupFileTestSuite) TearDownTest() {
	suite.loggerMock.AssertExpectations(suite.T())
}

func (suite *LookupFileTestSuite) TestOk() {
	location, ok := rangelib.LookupFile(suite.loggerMock, suite.path, "0.0.5.220")

	suite.True(ok)
	suite.Equal(rangelib.Location{Country: "US", Region: "CA", City: "LA"}, location)
}

func (suite *LookupFileTestSuite) TestNotFound() {
	_, ok := rangelib.LookupFile(suite.loggerMock, suite.path, "0.0.19.136")

	suite.False(ok)
}

func (suite *LookupFileTestSuite) TestNilLogger() {
	_, ok := rangelib.LookupFile(nil, suite.path, "incorrect")

	suite.False(ok)
}

func (suite *LookupFileTestSuite) TestIncorrectIP() {
	suite.loggerMock.On("LookupError", "1.2.3.4.5", mock.Anything).Once()

	_, ok := rangelib.LookupFile(suite.loggerMock, suite.path, "1.2.3.4.5")

	suite.False(ok)
}

func (suite *LookupFileTestSuite) TestAbsentFile() {
	path := filepath.Join(filepath.Dir(suite.path), "absent.csv")

	suite.loggerMock.On("LoadError", path, mock.Anything).Once()

	_, ok := rangelib.LookupFile(suite.loggerMock, path, "0.0.5.220")

	suite.False(ok)
}

func (suite *LookupFileTestSuite) TestFiltered() {
	_, ok := rangelib.LookupFileFiltered(suite.loggerMock, suite.path, "0.0.5.220", []string{"CA"})

	suite.False(ok)

	location, ok := rangelib.LookupFileFiltered(suite.loggerMock, suite.path, "0.0.7.209", []string{"CA"})

	suite.True(ok)
	suite.Equal("Toronto", location.City)
}

func (suite *LookupFileTestSuite) TestFilteredEmpty() {
	suite.loggerMock.
		On("LoadWarning", suite.path, "country filter is empty, filter will be ignored").
		Twice()

	location, ok := rangelib.LookupFileFiltered(suite.loggerMock, suite.path, "0.0.5.220", nil)

	suite.True(ok)
	suite.Equal("LA", location.City)

	_, ok = rangelib.LookupFileFiltered(suite.loggerMock, suite.path, "0.0.5.220", []string{})

	suite.True(ok)
}

func TestLookupFile(t *testing.T) {
	suite.Run(t, &LookupFileTestSuite{})
}
