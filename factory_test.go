package basket

import (
	"errors"
	"reflect"
	"testing"
)

func TestFactory_Compose(t *testing.T) {
	sys, custody := newTestSystem(t)
	fund(custody, "alice", USDC, A(1000))

	cert, err := sys.Factory.Compose("alice", USDC, A(1000), "artist", testVenue,
		[]Asset{GOLD, OIL}, [][]byte{leg(GOLD, 2), leg(OIL, 0.5)})
	if err != nil {
		t.Fatal(err)
	}

	// 1% entry fee on 1000, the 990 budget split evenly across two legs.
	wantHoldings := []Holding{
		{Asset: GOLD, Amount: A(990)},   // 495 * 2
		{Asset: OIL, Amount: A(247.5)},  // 495 * 0.5
	}
	if got := sys.Ledger.Holdings(cert); !reflect.DeepEqual(got, wantHoldings) {
		t.Errorf("Holdings() = %v, want %v", got, wantHoldings)
	}

	for _, q := range []struct {
		account string
		asset   Asset
		want    Amount
	}{
		{"alice", USDC, A(0)},
		{"factory", USDC, A(0)},
		{"fees", USDC, A(10)},
		{"reserve", GOLD, A(990)},
		{"reserve", OIL, A(247.5)},
	} {
		if got := custody.BalanceOf(q.account, q.asset); !got.Equal(q.want) {
			t.Errorf("%s holds %s %s, want %s", q.account, got, q.asset, q.want)
		}
	}

	if owner, err := sys.Registry.OwnerOf(cert); err != nil || owner != "alice" {
		t.Errorf("OwnerOf() = %q, %v, want alice", owner, err)
	}
	// Royalty slice of the 10 fee at 20%.
	if got := sys.Splitter.Releasable("artist", USDC); !got.Equal(A(2)) {
		t.Errorf("artist's royalty accrual = %s, want 2", got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("CheckConservation() = %v", err)
	}
}

func TestFactory_ComposeFailingLegRollsBack(t *testing.T) {
	sys, custody := newTestSystem(t)
	fund(custody, "bob", USDC, A(600))

	_, err := sys.Factory.Compose("bob", USDC, A(600), "", testVenue,
		[]Asset{GOLD, OIL, TRS}, [][]byte{leg(GOLD, 2), leg(OIL, 1), []byte("fail")})
	if !errors.Is(err, ErrAdapterFailure) {
		t.Fatalf("Compose() error = %v, want ErrAdapterFailure", err)
	}

	// All-or-nothing: nothing moved anywhere.
	for _, q := range []struct {
		account string
		asset   Asset
		want    Amount
	}{
		{"bob", USDC, A(600)},
		{"fees", USDC, A(0)},
		{"reserve", GOLD, A(0)},
		{"reserve", OIL, A(0)},
	} {
		if got := custody.BalanceOf(q.account, q.asset); !got.Equal(q.want) {
			t.Errorf("%s holds %s %s, want %s", q.account, got, q.asset, q.want)
		}
	}
	if got := sys.Ledger.Certificates(); len(got) != 0 {
		t.Errorf("Certificates() = %v, want none", got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("CheckConservation() = %v", err)
	}
}

func TestFactory_ComposeValidation(t *testing.T) {
	testCases := []struct {
		name     string
		total    Amount
		venue    VenueID
		outputs  []Asset
		payloads [][]byte
		wantErr  error
	}{
		{
			name:    "no legs",
			total:   A(100),
			venue:   testVenue,
			wantErr: ErrInvalidInput,
		},
		{
			name:     "legs and payloads mismatch",
			total:    A(100),
			venue:    testVenue,
			outputs:  []Asset{GOLD, OIL},
			payloads: [][]byte{leg(GOLD, 1)},
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "non-positive total",
			total:    A(0),
			venue:    testVenue,
			outputs:  []Asset{GOLD},
			payloads: [][]byte{leg(GOLD, 1)},
			wantErr:  ErrInvalidInput,
		},
		{
			name:     "unknown venue",
			total:    A(100),
			venue:    "nowhere",
			outputs:  []Asset{GOLD},
			payloads: [][]byte{leg(GOLD, 1)},
			wantErr:  ErrInvalidInput,
		},
		{
			name:  "too many distinct assets",
			total: A(1600),
			venue: testVenue,
			outputs: func() []Asset {
				out := make([]Asset, MaxHoldings+1)
				for i := range out {
					out[i] = Asset(string(rune('A'+i)) + "X")
				}
				return out
			}(),
			payloads: func() [][]byte {
				out := make([][]byte, MaxHoldings+1)
				for i := range out {
					out[i] = leg(Asset(string(rune('A'+i))+"X"), 1)
				}
				return out
			}(),
			wantErr: ErrTooManyHoldings,
		},
		{
			name:     "venue delivers the wrong asset",
			total:    A(100),
			venue:    testVenue,
			outputs:  []Asset{GOLD},
			payloads: [][]byte{leg(OIL, 1)},
			wantErr:  ErrAdapterFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sys, custody := newTestSystem(t)
			fund(custody, "alice", USDC, A(1600))
			_, err := sys.Factory.Compose("alice", USDC, tc.total, "", tc.venue, tc.outputs, tc.payloads)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Compose() error = %v, want %v", err, tc.wantErr)
			}
			if got := custody.BalanceOf("alice", USDC); !got.Equal(A(1600)) {
				t.Errorf("alice holds %s after the failure, want 1600", got)
			}
		})
	}
}

func TestFactory_ComposeWithoutAllowance(t *testing.T) {
	sys, custody := newTestSystem(t)
	custody.Deposit("alice", USDC, A(1000)) // no approval for the escrow

	_, err := sys.Factory.Compose("alice", USDC, A(1000), "", testVenue,
		[]Asset{GOLD}, [][]byte{leg(GOLD, 1)})
	if !errors.Is(err, ErrFundsTransfer) {
		t.Fatalf("Compose() error = %v, want ErrFundsTransfer", err)
	}
}

func TestFactory_Replicate(t *testing.T) {
	sys, custody := newTestSystem(t)
	fund(custody, "alice", USDC, A(1000))
	fund(custody, "bob", USDC, A(500))

	source, err := sys.Factory.Compose("alice", USDC, A(1000), "", testVenue,
		[]Asset{GOLD}, [][]byte{leg(GOLD, 2)})
	if err != nil {
		t.Fatal(err)
	}

	clone, err := sys.Factory.Replicate("bob", source, USDC, A(500), "", testVenue,
		[]Asset{GOLD}, [][]byte{leg(GOLD, 2)})
	if err != nil {
		t.Fatal(err)
	}
	if clone == source {
		t.Fatal("Replicate() returned the source certificate id")
	}
	if owner, _ := sys.Registry.OwnerOf(clone); owner != "bob" {
		t.Errorf("OwnerOf(clone) = %q, want bob", owner)
	}
	registry := sys.Registry.(*MemRegistry)
	if got := registry.Lineage(clone); got != source {
		t.Errorf("Lineage(clone) = %q, want %q", got, source)
	}
	if got := registry.Lineage(source); got != "" {
		t.Errorf("Lineage(source) = %q, want empty", got)
	}

	// Replicating a certificate that does not exist must fail upfront.
	if _, err := sys.Factory.Replicate("bob", "no-such-cert", USDC, A(1), "", testVenue,
		[]Asset{GOLD}, [][]byte{leg(GOLD, 1)}); !errors.Is(err, ErrUnknownCertificate) {
		t.Errorf("Replicate() from an unknown source: error = %v, want ErrUnknownCertificate", err)
	}
}

func TestFactory_Decompose(t *testing.T) {
	sys, custody := newTestSystem(t)
	fund(custody, "alice", USDC, A(1000))
	cert, err := sys.Factory.Compose("alice", USDC, A(1000), "", testVenue,
		[]Asset{GOLD, OIL}, [][]byte{leg(GOLD, 2), leg(OIL, 0.5)})
	if err != nil {
		t.Fatal(err)
	}

	// Liquidate the 990 GOLD at rate 0.5 into 495 USDC; 1% exit fee floors
	// to 4, the 491 net goes to alice.
	net, err := sys.Factory.Decompose("alice", cert, testVenue,
		[]SellLeg{{Asset: GOLD, Payload: leg(USDC, 0.5)}}, USDC, "")
	if err != nil {
		t.Fatal(err)
	}
	if !net.Equal(A(491)) {
		t.Errorf("Decompose() net = %s, want 491", net)
	}
	if got := custody.BalanceOf("alice", USDC); !got.Equal(A(491)) {
		t.Errorf("alice holds %s, want 491", got)
	}
	if got := custody.BalanceOf("reserve", GOLD); !got.IsZero() {
		t.Errorf("the vault still holds %s GOLD, want 0", got)
	}

	// The certificate survives with its remaining holding.
	want := []Holding{{Asset: OIL, Amount: A(247.5)}}
	if got := sys.Ledger.Holdings(cert); !reflect.DeepEqual(got, want) {
		t.Errorf("Holdings() = %v, want %v", got, want)
	}
	if _, err := sys.Registry.OwnerOf(cert); err != nil {
		t.Errorf("the certificate was burned with a holding left: %v", err)
	}

	// Liquidating the last holding burns it.
	if _, err := sys.Factory.Decompose("alice", cert, testVenue,
		[]SellLeg{{Asset: OIL, Payload: leg(USDC, 2)}}, USDC, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := sys.Registry.OwnerOf(cert); !errors.Is(err, ErrUnknownCertificate) {
		t.Errorf("OwnerOf() after full liquidation: error = %v, want ErrUnknownCertificate", err)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("CheckConservation() = %v", err)
	}
}

func TestFactory_DecomposeGuards(t *testing.T) {
	sys, custody := newTestSystem(t)
	fund(custody, "alice", USDC, A(1000))
	cert, err := sys.Factory.Compose("alice", USDC, A(1000), "", testVenue,
		[]Asset{GOLD, OIL}, [][]byte{leg(GOLD, 2), leg(OIL, 0.5)})
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name    string
		caller  string
		cert    string
		sells   []SellLeg
		all     bool
		wantErr error
	}{
		{
			name:    "not the owner",
			caller:  "bob",
			cert:    cert,
			sells:   []SellLeg{{Asset: GOLD, Payload: leg(USDC, 1)}},
			wantErr: ErrNotOwner,
		},
		{
			name:    "unknown certificate",
			caller:  "alice",
			cert:    "no-such-cert",
			sells:   []SellLeg{{Asset: GOLD, Payload: leg(USDC, 1)}},
			wantErr: ErrUnknownCertificate,
		},
		{
			name:    "no sell legs",
			caller:  "alice",
			cert:    cert,
			wantErr: ErrInvalidInput,
		},
		{
			name:   "duplicate sell leg",
			caller: "alice",
			cert:   cert,
			sells: []SellLeg{
				{Asset: GOLD, Payload: leg(USDC, 1)},
				{Asset: GOLD, Payload: leg(USDC, 1)},
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unheld asset",
			caller:  "alice",
			cert:    cert,
			sells:   []SellLeg{{Asset: TRS, Payload: leg(USDC, 1)}},
			wantErr: ErrInsufficientHolding,
		},
		{
			name:    "full liquidation missing a holding",
			caller:  "alice",
			cert:    cert,
			sells:   []SellLeg{{Asset: GOLD, Payload: leg(USDC, 1)}},
			all:     true,
			wantErr: ErrInvalidInput,
		},
		{
			name:   "failing leg",
			caller: "alice",
			cert:   cert,
			sells: []SellLeg{
				{Asset: GOLD, Payload: leg(USDC, 1)},
				{Asset: OIL, Payload: []byte("fail")},
			},
			wantErr: ErrAdapterFailure,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			decompose := sys.Factory.Decompose
			if tc.all {
				decompose = sys.Factory.DecomposeAll
			}
			_, err := decompose(tc.caller, tc.cert, testVenue, tc.sells, USDC, "")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			// Whatever the failure, the basket must be intact.
			want := []Holding{
				{Asset: GOLD, Amount: A(990)},
				{Asset: OIL, Amount: A(247.5)},
			}
			if got := sys.Ledger.Holdings(cert); !reflect.DeepEqual(got, want) {
				t.Errorf("Holdings() = %v, want %v", got, want)
			}
			if err := sys.CheckConservation(); err != nil {
				t.Errorf("CheckConservation() = %v", err)
			}
		})
	}
}

func TestFactory_DecomposeAll(t *testing.T) {
	sys, custody := newTestSystem(t)
	fund(custody, "alice", USDC, A(1000))
	cert, err := sys.Factory.Compose("alice", USDC, A(1000), "", testVenue,
		[]Asset{GOLD, OIL}, [][]byte{leg(GOLD, 2), leg(OIL, 0.5)})
	if err != nil {
		t.Fatal(err)
	}

	sells := []SellLeg{
		{Asset: GOLD, Payload: leg(USDC, 0.5)},
		{Asset: OIL, Payload: leg(USDC, 2)},
	}
	// 990*0.5 + 247.5*2 = 990 gross, 9 exit fee, 981 net.
	net, err := sys.Factory.DecomposeAll("alice", cert, testVenue, sells, USDC, "")
	if err != nil {
		t.Fatal(err)
	}
	if !net.Equal(A(981)) {
		t.Errorf("DecomposeAll() net = %s, want 981", net)
	}
	if _, err := sys.Registry.OwnerOf(cert); !errors.Is(err, ErrUnknownCertificate) {
		t.Errorf("the certificate survived a full liquidation: %v", err)
	}
	if got := sys.Ledger.Certificates(); len(got) != 0 {
		t.Errorf("Certificates() = %v, want none", got)
	}
	if got := custody.BalanceOf("reserve", GOLD); !got.IsZero() {
		t.Errorf("the vault still holds %s GOLD", got)
	}
	if err := sys.CheckConservation(); err != nil {
		t.Errorf("CheckConservation() = %v", err)
	}
}

func TestFactory_FeeRates(t *testing.T) {
	sys, custody := newTestSystem(t)
	admin := sys.AdminGrant()

	if err := sys.Factory.SetEntryFeeBP(NewGrant(), 50); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SetEntryFeeBP() with a foreign grant: error = %v, want ErrUnauthorized", err)
	}
	if err := sys.Factory.SetEntryFeeBP(admin, 10001); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetEntryFeeBP(10001) error = %v, want ErrInvalidInput", err)
	}
	if err := sys.Factory.SetEntryFeeBP(admin, -1); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SetEntryFeeBP(-1) error = %v, want ErrInvalidInput", err)
	}

	// A zero entry fee forwards nothing to the splitter.
	if err := sys.Factory.SetEntryFeeBP(admin, 0); err != nil {
		t.Fatal(err)
	}
	fund(custody, "alice", USDC, A(1000))
	cert, err := sys.Factory.Compose("alice", USDC, A(1000), "artist", testVenue,
		[]Asset{GOLD}, [][]byte{leg(GOLD, 1)})
	if err != nil {
		t.Fatal(err)
	}
	if got := custody.BalanceOf("fees", USDC); !got.IsZero() {
		t.Errorf("the splitter received %s with a zero fee", got)
	}
	want := []Holding{{Asset: GOLD, Amount: A(1000)}}
	if got := sys.Ledger.Holdings(cert); !reflect.DeepEqual(got, want) {
		t.Errorf("Holdings() = %v, want %v", got, want)
	}
}
