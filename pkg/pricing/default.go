package pricing

import "github.com/opscart/finops-engine/pkg/models"

// DefaultTable returns on-demand us-east-1 list prices (730 hours a month)
func DefaultTable() *Table {
	t := &Table{
		Region:   "us-east-1",
		Currency: "USD",
		Instances: []InstanceType{
			{Class: "t2.micro", VCPU: 1, MemoryGiB: 1, Arch: "x86_64", MonthlyPrice: 8.47},
			{Class: "t2.small", VCPU: 1, MemoryGiB: 2, Arch: "x86_64", MonthlyPrice: 16.79},
			{Class: "t2.medium", VCPU: 2, MemoryGiB: 4, Arch: "x86_64", MonthlyPrice: 33.58},
			{Class: "t2.large", VCPU: 2, MemoryGiB: 8, Arch: "x86_64", MonthlyPrice: 67.16},
			{Class: "t2.xlarge", VCPU: 4, MemoryGiB: 16, Arch: "x86_64", MonthlyPrice: 134.32},

			{Class: "t3.micro", VCPU: 2, MemoryGiB: 1, Arch: "x86_64", MonthlyPrice: 7.59},
			{Class: "t3.small", VCPU: 2, MemoryGiB: 2, Arch: "x86_64", MonthlyPrice: 15.18},
			{Class: "t3.medium", VCPU: 2, MemoryGiB: 4, Arch: "x86_64", MonthlyPrice: 30.37},
			{Class: "t3.large", VCPU: 2, MemoryGiB: 8, Arch: "x86_64", MonthlyPrice: 60.74},
			{Class: "t3.xlarge", VCPU: 4, MemoryGiB: 16, Arch: "x86_64", MonthlyPrice: 121.47},
			{Class: "t3.2xlarge", VCPU: 8, MemoryGiB: 32, Arch: "x86_64", MonthlyPrice: 242.94},

			{Class: "t4g.micro", VCPU: 2, MemoryGiB: 1, Arch: "arm64", MonthlyPrice: 6.13},
			{Class: "t4g.small", VCPU: 2, MemoryGiB: 2, Arch: "arm64", MonthlyPrice: 12.26},
			{Class: "t4g.medium", VCPU: 2, MemoryGiB: 4, Arch: "arm64", MonthlyPrice: 24.53},
			{Class: "t4g.large", VCPU: 2, MemoryGiB: 8, Arch: "arm64", MonthlyPrice: 49.06},
			{Class: "t4g.xlarge", VCPU: 4, MemoryGiB: 16, Arch: "arm64", MonthlyPrice: 98.11},
			{Class: "t4g.2xlarge", VCPU: 8, MemoryGiB: 32, Arch: "arm64", MonthlyPrice: 196.22},

			{Class: "m5.large", VCPU: 2, MemoryGiB: 8, Arch: "x86_64", MonthlyPrice: 70.08},
			{Class: "m5.xlarge", VCPU: 4, MemoryGiB: 16, Arch: "x86_64", MonthlyPrice: 140.16},
			{Class: "m5.2xlarge", VCPU: 8, MemoryGiB: 32, Arch: "x86_64", MonthlyPrice: 280.32},
			{Class: "m5.4xlarge", VCPU: 16, MemoryGiB: 64, Arch: "x86_64", MonthlyPrice: 560.64},
			{Class: "m5.8xlarge", VCPU: 32, MemoryGiB: 128, Arch: "x86_64", MonthlyPrice: 1121.28},

			{Class: "m6g.large", VCPU: 2, MemoryGiB: 8, Arch: "arm64", MonthlyPrice: 56.21},
			{Class: "m6g.xlarge", VCPU: 4, MemoryGiB: 16, Arch: "arm64", MonthlyPrice: 112.42},
			{Class: "m6g.2xlarge", VCPU: 8, MemoryGiB: 32, Arch: "arm64", MonthlyPrice: 224.84},
			{Class: "m6g.4xlarge", VCPU: 16, MemoryGiB: 64, Arch: "arm64", MonthlyPrice: 449.68},
			{Class: "m6g.8xlarge", VCPU: 32, MemoryGiB: 128, Arch: "arm64", MonthlyPrice: 899.36},

			{Class: "c5.large", VCPU: 2, MemoryGiB: 4, Arch: "x86_64", MonthlyPrice: 62.05},
			{Class: "c5.xlarge", VCPU: 4, MemoryGiB: 8, Arch: "x86_64", MonthlyPrice: 124.10},
			{Class: "c5.2xlarge", VCPU: 8, MemoryGiB: 16, Arch: "x86_64", MonthlyPrice: 248.19},

			{Class: "c6g.large", VCPU: 2, MemoryGiB: 4, Arch: "arm64", MonthlyPrice: 49.64},
			{Class: "c6g.xlarge", VCPU: 4, MemoryGiB: 8, Arch: "arm64", MonthlyPrice: 99.28},
			{Class: "c6g.2xlarge", VCPU: 8, MemoryGiB: 16, Arch: "arm64", MonthlyPrice: 198.56},

			{Class: "r5.large", VCPU: 2, MemoryGiB: 16, Arch: "x86_64", MonthlyPrice: 91.98},
			{Class: "r5.xlarge", VCPU: 4, MemoryGiB: 32, Arch: "x86_64", MonthlyPrice: 183.96},
			{Class: "r5.2xlarge", VCPU: 8, MemoryGiB: 64, Arch: "x86_64", MonthlyPrice: 367.92},

			{Class: "r6g.large", VCPU: 2, MemoryGiB: 16, Arch: "arm64", MonthlyPrice: 73.58},
			{Class: "r6g.xlarge", VCPU: 4, MemoryGiB: 32, Arch: "arm64", MonthlyPrice: 147.17},
			{Class: "r6g.2xlarge", VCPU: 8, MemoryGiB: 64, Arch: "arm64", MonthlyPrice: 294.34},

			{Class: "db.t3.micro", VCPU: 2, MemoryGiB: 1, Arch: "x86_64", MonthlyPrice: 14.18},
			{Class: "db.t3.small", VCPU: 2, MemoryGiB: 2, Arch: "x86_64", MonthlyPrice: 28.36},
			{Class: "db.t3.medium", VCPU: 2, MemoryGiB: 4, Arch: "x86_64", MonthlyPrice: 56.72},
			{Class: "db.t3.large", VCPU: 2, MemoryGiB: 8, Arch: "x86_64", MonthlyPrice: 113.44},
			{Class: "db.r5.large", VCPU: 2, MemoryGiB: 16, Arch: "x86_64", MonthlyPrice: 183.96},
			{Class: "db.r5.xlarge", VCPU: 4, MemoryGiB: 32, Arch: "x86_64", MonthlyPrice: 367.92},
		},
		Storage: []StorageClass{
			{Name: "gp2", PricePerGB: 0.10, Successor: "gp3"},
			{Name: "gp3", PricePerGB: 0.08},
			{Name: "io1", PricePerGB: 0.125, Successor: "io2"},
			{Name: "io2", PricePerGB: 0.125},
			{Name: "st1", PricePerGB: 0.045},
			{Name: "sc1", PricePerGB: 0.025},
			{Name: "standard", PricePerGB: 0.05, Successor: "gp3"},
		},
		SnapshotPerGB:      0.05,
		AddressMonthly:     3.65,
		CommitmentDiscount: 0.30,
		ArchEquivalents: map[string]string{
			"t3": "t4g",
			"m5": "m6g",
			"c5": "c6g",
			"r5": "r6g",
		},
		MigrationCosts: map[models.ActionType]float64{
			models.ActionRightSize:           25,
			models.ActionMigrateStorageClass: 10,
			models.ActionMigrateArchitecture: 500,
		},
	}
	t.index()
	return t
}
