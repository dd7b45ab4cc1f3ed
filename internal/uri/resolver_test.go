package uri_test

import (
	"context"
	"errors"
	"net/http"
	"os"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/drips-indexer/internal/logger"
	"github.com/feral-file/drips-indexer/internal/mocks"
	"github.com/feral-file/drips-indexer/internal/uri"
)

const testCID = "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG"

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

func TestCID(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		expected    string
		expectedErr bool
	}{
		{name: "bare cid", ref: testCID, expected: testCID},
		{name: "ipfs uri", ref: "ipfs://" + testCID, expected: testCID},
		{name: "ipfs uri with ipfs path", ref: "ipfs://ipfs/" + testCID, expected: testCID},
		{name: "gateway url", ref: "https://ipfs.io/ipfs/" + testCID, expected: testCID},
		{name: "cid with path", ref: "ipfs://" + testCID + "/meta.json", expected: testCID + "/meta.json"},
		{name: "surrounding whitespace", ref: "  " + testCID + "\n", expected: testCID},
		{name: "empty", ref: "", expectedErr: true},
		{name: "empty ipfs uri", ref: "ipfs://", expectedErr: true},
		{name: "query string", ref: testCID + "?x=1", expectedErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cid, err := uri.CID(tt.ref)
			if tt.expectedErr {
				assert.ErrorIs(t, err, uri.ErrInvalidCID)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cid)
		})
	}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name        string
		ref         string
		gateways    []string
		setupMocks  func(*mocks.MockHTTPClient)
		expected    string
		expectedErr string
	}{
		{
			name:     "first working gateway",
			ref:      "ipfs://" + testCID,
			gateways: []string{"https://ipfs.io", "https://gateway.pinata.cloud/"},
			setupMocks: func(mockHTTP *mocks.MockHTTPClient) {
				mockHTTP.EXPECT().Head(gomock.Any(), "https://ipfs.io/ipfs/"+testCID).Return(http.StatusNotFound, nil).MaxTimes(1)
				mockHTTP.EXPECT().Head(gomock.Any(), "https://gateway.pinata.cloud/ipfs/"+testCID).Return(http.StatusOK, nil)
			},
			expected: "https://gateway.pinata.cloud/ipfs/" + testCID,
		},
		{
			name:     "bare cid",
			ref:      testCID,
			gateways: []string{"https://ipfs.io"},
			setupMocks: func(mockHTTP *mocks.MockHTTPClient) {
				mockHTTP.EXPECT().Head(gomock.Any(), "https://ipfs.io/ipfs/"+testCID).Return(http.StatusOK, nil)
			},
			expected: "https://ipfs.io/ipfs/" + testCID,
		},
		{
			name:     "all gateways fail",
			ref:      testCID,
			gateways: []string{"https://ipfs.io", "https://dweb.link"},
			setupMocks: func(mockHTTP *mocks.MockHTTPClient) {
				mockHTTP.EXPECT().Head(gomock.Any(), "https://ipfs.io/ipfs/"+testCID).Return(0, errors.New("timeout"))
				mockHTTP.EXPECT().Head(gomock.Any(), "https://dweb.link/ipfs/"+testCID).Return(http.StatusBadGateway, nil)
			},
			expectedErr: "no working IPFS gateway found",
		},
		{
			name:        "no gateways",
			ref:         testCID,
			expectedErr: "no IPFS gateways configured",
		},
		{
			name:        "invalid reference",
			ref:         "",
			gateways:    []string{"https://ipfs.io"},
			expectedErr: "invalid ipfs cid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockHTTP := mocks.NewMockHTTPClient(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(mockHTTP)
			}

			resolver := uri.NewResolver(mockHTTP, &uri.Config{IPFSGateways: tt.gateways})
			url, err := resolver.Resolve(context.Background(), tt.ref)
			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, url)
		})
	}
}
