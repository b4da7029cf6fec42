/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/notargets/gosvps/admm"
	"github.com/notargets/gosvps/svps"
	"github.com/notargets/gosvps/utils"
)

// PathParameters mirrors svps.Options as a YAML document so runs can be
// described by a parameter file instead of flags.
type PathParameters struct {
	NDim           float64   `yaml:"NDim"`
	NSol           int       `yaml:"NSol"`
	MaxNVar        int       `yaml:"MaxNVar"`
	LambdaMinRatio float64   `yaml:"LambdaMinRatio"`
	LambdaMin      float64   `yaml:"LambdaMin"`
	Lambda         []float64 `yaml:"Lambda"`
	MaxIter        int       `yaml:"MaxIter"`
	Tolerance      float64   `yaml:"Tolerance"`
	Dense          bool      `yaml:"Dense"`
}

func (pp *PathParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, pp)
}

func (pp *PathParameters) Print() {
	fmt.Printf("%8.5f\t\t= NDim\n", pp.NDim)
	fmt.Printf("[%d]\t\t\t= NSol\n", pp.NSol)
	fmt.Printf("[%d]\t\t\t= MaxNVar\n", pp.MaxNVar)
	fmt.Printf("%8.5f\t\t= LambdaMinRatio\n", pp.LambdaMinRatio)
	fmt.Printf("%8.5f\t\t= LambdaMin\n", pp.LambdaMin)
	fmt.Printf("[%d]\t\t\t= MaxIter\n", pp.MaxIter)
	fmt.Printf("%8.1e\t\t= Tolerance\n", pp.Tolerance)
	if len(pp.Lambda) > 0 {
		fmt.Printf("%v\t\t= Lambda\n", pp.Lambda)
	}
}

// PathResult is the YAML shape of the path diagnostics; the projection
// matrices themselves are omitted to keep result files small.
type PathResult struct {
	NDim     float64     `yaml:"NDim"`
	Lambda   []float64   `yaml:"Lambda"`
	NIter    []int       `yaml:"NIter"`
	L1       []float64   `yaml:"L1"`
	VarRow   []float64   `yaml:"VarRow"`
	VarCol   []float64   `yaml:"VarCol"`
	VarTotal float64     `yaml:"VarTotal"`
	RowPerm  []int       `yaml:"RowPerm,omitempty"`
	ColPerm  []int       `yaml:"ColPerm,omitempty"`
	LevRow   [][]float64 `yaml:"LeverageRow"`
	LevCol   [][]float64 `yaml:"LeverageCol"`
}

// PathCmd represents the path command
var PathCmd = &cobra.Command{
	Use:   "path",
	Short: "Compute an SVPS regularization path from a CSV matrix",
	Long: `
Reads a dense real matrix from CSV, computes the SVPS solution path and
prints per-solution diagnostics. Parameters come from flags or a YAML
parameter file,

gosvps path -i data.csv -p params.yaml -o results.yaml`,
	Run: func(cmd *cobra.Command, args []string) {
		pp := &PathParameters{
			NSol:           50,
			MaxNVar:        -1,
			LambdaMinRatio: -1,
			LambdaMin:      -1,
			MaxIter:        100,
			Tolerance:      1.e-3,
		}
		if pFile, _ := cmd.Flags().GetString("params"); pFile != "" {
			data, err := os.ReadFile(pFile)
			if err != nil {
				fmt.Printf("unable to read parameter file: %v\n", err)
				os.Exit(1)
			}
			if err = pp.Parse(data); err != nil {
				fmt.Printf("unable to parse parameter file: %v\n", err)
				os.Exit(1)
			}
		}
		// Flags set on the command line override the parameter file.
		if cmd.Flags().Changed("ndim") {
			pp.NDim, _ = cmd.Flags().GetFloat64("ndim")
		}
		if cmd.Flags().Changed("nsol") {
			pp.NSol, _ = cmd.Flags().GetInt("nsol")
		}
		if cmd.Flags().Changed("maxiter") {
			pp.MaxIter, _ = cmd.Flags().GetInt("maxiter")
		}
		if cmd.Flags().Changed("tolerance") {
			pp.Tolerance, _ = cmd.Flags().GetFloat64("tolerance")
		}
		if cmd.Flags().Changed("dense") {
			pp.Dense, _ = cmd.Flags().GetBool("dense")
		}
		verbose, _ := cmd.Flags().GetInt("verbose")
		inFile, _ := cmd.Flags().GetString("input")
		outFile, _ := cmd.Flags().GetString("output")

		x, err := ReadCSVMatrix(inFile)
		if err != nil {
			fmt.Printf("unable to read input matrix: %v\n", err)
			os.Exit(1)
		}
		if verbose > 0 {
			pp.Print()
		}
		path, err := svps.Compute(x, svps.Options{
			NDim:           pp.NDim,
			NSol:           pp.NSol,
			MaxNVar:        pp.MaxNVar,
			LambdaMinRatio: pp.LambdaMinRatio,
			LambdaMin:      pp.LambdaMin,
			Lambda:         pp.Lambda,
			MaxIter:        pp.MaxIter,
			Tolerance:      pp.Tolerance,
			Dense:          pp.Dense,
			Verbose:        verbose,
		})
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		PrintPath(path)
		if outFile != "" {
			if err = WritePathResult(outFile, path); err != nil {
				fmt.Printf("unable to write results: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(PathCmd)
	PathCmd.Flags().StringP("input", "i", "", "CSV file containing the data matrix")
	PathCmd.Flags().StringP("params", "p", "", "YAML parameter file")
	PathCmd.Flags().StringP("output", "o", "", "YAML results file")
	PathCmd.Flags().Float64P("ndim", "d", 1, "target subspace dimension, may be fractional")
	PathCmd.Flags().IntP("nsol", "n", 50, "number of solutions on the automatic grid")
	PathCmd.Flags().Int("maxiter", 100, "maximum ADMM iterations per solution")
	PathCmd.Flags().Float64("tolerance", 1.e-3, "convergence tolerance")
	PathCmd.Flags().Bool("dense", false, "disable the block-partition optimization")
	PathCmd.Flags().IntP("verbose", "v", 0, "verbosity level")
	_ = PathCmd.MarkFlagRequired("input")
}

// ReadCSVMatrix reads a dense matrix from a headerless CSV file of floats.
func ReadCSVMatrix(fileName string) (m utils.Matrix, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return
	}
	if len(records) == 0 {
		err = fmt.Errorf("empty CSV file: %s", fileName)
		return
	}
	var (
		nr, nc = len(records), len(records[0])
		data   = make([]float64, 0, nr*nc)
	)
	for i, rec := range records {
		if len(rec) != nc {
			err = fmt.Errorf("ragged CSV: row %d has %d fields, expected %d", i+1, len(rec), nc)
			return
		}
		for _, field := range rec {
			var v float64
			if v, err = strconv.ParseFloat(field, 64); err != nil {
				return
			}
			data = append(data, v)
		}
	}
	m = utils.NewMatrix(nr, nc, data)
	return
}

func PrintPath(path *svps.Path) {
	fmt.Printf("%12s %8s %12s %12s %12s\n", "lambda", "niter", "L1", "var.row", "var.col")
	for i, l := range path.Lambda {
		niter := fmt.Sprintf("%d", path.NIter[i])
		if path.NIter[i] == admm.NotConverged {
			niter = "DNC"
		}
		fmt.Printf("%12.6f %8s %12.6f %12.6f %12.6f\n",
			l, niter, path.L1[i], path.VarRow[i], path.VarCol[i])
	}
	fmt.Printf("var.total = %.6f\n", path.VarTotal)
}

func WritePathResult(fileName string, path *svps.Path) (err error) {
	res := PathResult{
		NDim:     path.NDim,
		Lambda:   path.Lambda,
		NIter:    path.NIter,
		L1:       path.L1,
		VarRow:   path.VarRow,
		VarCol:   path.VarCol,
		VarTotal: path.VarTotal,
		RowPerm:  path.RowPerm,
		ColPerm:  path.ColPerm,
		LevRow:   matrixColumns(path.LeverageRow),
		LevCol:   matrixColumns(path.LeverageCol),
	}
	data, err := yaml.Marshal(&res)
	if err != nil {
		return
	}
	return os.WriteFile(fileName, data, 0644)
}

// matrixColumns unpacks a matrix into its column slices, one per lambda.
func matrixColumns(m utils.Matrix) (cols [][]float64) {
	var (
		nr, nc = m.Dims()
	)
	cols = make([][]float64, nc)
	for j := 0; j < nc; j++ {
		cols[j] = make([]float64, nr)
		for i := 0; i < nr; i++ {
			cols[j][i] = m.At(i, j)
		}
	}
	return
}
