package detector

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultSignalIndex returns the built-in Indonesian bookkeeping vocabulary.
// Office payroll, utilities and office consumption vote OPERATIONAL; field
// labor, construction materials and logistics vote PROJECT. Weights below
// StrongSignalThreshold still vote but never auto-resolve on their own.
func DefaultSignalIndex() SignalIndex {
	return SignalIndex{
		Operational: map[string]float64{
			"gaji admin":        1.00,
			"gaji staff":        1.00,
			"gaji karyawan":     1.00,
			"gaji sekretaris":   1.00,
			"gaji receptionist": 1.00,
			"gaji cs":           1.00,
			"gaji accounting":   1.00,
			"gaji akuntan":      1.00,

			"listrik":         1.00,
			"pln":             1.00,
			"bayar listrik":   1.00,
			"tagihan listrik": 1.00,

			"air":         0.95,
			"pdam":        1.00,
			"tagihan air": 1.00,
			"bayar air":   0.95,

			"wifi":            1.00,
			"internet":        0.95,
			"internet kantor": 1.00,
			"wifi kantor":     1.00,

			"atk":           1.00,
			"alat tulis":    1.00,
			"printer":       0.90,
			"toner":         0.90,
			"kertas kantor": 1.00,

			"konsumsi kantor": 1.00,
			"snack kantor":    1.00,
			"makan kantor":    1.00,
			"kopi kantor":     0.95,

			"pulsa kantor":     0.90,
			"parkir kantor":    0.90,
			"keamanan":         0.85,
			"cleaning service": 0.90,
			"lain-lain":        0.70,
		},
		Project: map[string]float64{
			"bayar tukang":     1.00,
			"upah tukang":      1.00,
			"fee tukang":       1.00,
			"gaji tukang":      0.95,
			"bon tukang":       1.00,
			"ongkos tukang":    1.00,
			"jasa tukang":      1.00,
			"tukang bangunan":  1.00,
			"tukang cat":       1.00,
			"tukang listrik":   1.00,
			"tukang kayu":      1.00,
			"mandor":           1.00,
			"pekerja lapangan": 1.00,

			"material":       1.00,
			"bahan bangunan": 1.00,
			"cat":            0.85,
			"semen":          0.90,
			"pasir":          0.90,
			"batu bata":      0.90,
			"besi":           0.85,
			"kayu":           0.85,
			"triplek":        0.90,
			"keramik":        0.90,
			"pipa":           0.85,
			"kabel":          0.80,

			"ongkir":             0.90,
			"kirim barang":       0.85,
			"transport material": 0.95,
			"sewa truk":          0.90,

			"jasa renovasi":   1.00,
			"jasa design":     0.90,
			"survei lapangan": 0.95,
		},
		Ambiguous: []string{
			"gajian",
			"gaji",
			"bayar orang",
			"bayar",
			"upah",
			"bon",
			"fee",
		},
		OfficeRoles: []string{
			"administrator", "admin", "staff", "karyawan",
			"sekretaris", "secretary", "receptionist",
			"customer service", "cs", "akuntan", "accounting",
			"kasir", "cashier", "manager kantor", "supervisor kantor",
		},
		FieldRoles: []string{
			"tukang bangunan", "tukang cat", "tukang listrik", "tukang",
			"pekerja lapangan", "pelukis", "designer lapangan",
			"mandor", "helper", "sopir proyek", "surveyor", "kontraktor",
		},
		ProjectBlacklist: []string{
			"gaji", "gajian", "bon", "bayar", "beli", "untuk", "buat",
			"fee", "upah", "ongkos", "jasa", "kirim", "transfer",
			"project", "proyek", "dari", "dengan", "ke", "di",
		},
	}
}

// LoadSignalIndex reads a YAML vocabulary file and merges it over the
// defaults. Missing file sections fall back to the built-in data, so a
// deployment can override just one section (say project_blacklist).
func LoadSignalIndex(path string) (SignalIndex, error) {
	index := DefaultSignalIndex()
	if path == "" {
		return index, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return index, err
	}

	if err := k.Unmarshal("", &index); err != nil {
		return index, err
	}

	return index, nil
}
