package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func describeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <mapping-file>",
		Short: "Display statistics about a mapping file and its machine description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.validator.ValidateFile(args[0])
			if err != nil {
				return reportError(err)
			}
			md, err := a.resolver.Resolve(m.MachineDescriptionURI, m.DataDictionaryVersion, m.TargetIDS)
			if err != nil {
				return err
			}

			fmt.Printf("IMAS-ITER-Mapping file %q maps %d signals to the %s IDS.\n\n",
				args[0], m.NumSignals(), m.TargetIDS)

			paths := md.ArrayPaths()
			fmt.Printf("The Machine Description contains %d channel types:\n", len(paths))
			for _, path := range paths {
				elements, _ := md.Elements(path)
				if len(elements) == 0 {
					continue
				}
				channels := m.Channels(path)
				fmt.Printf("- '%s' has %d elements, of which %d (%.0f%%) have mapped signals.\n",
					path, len(elements), len(channels),
					100*float64(len(channels))/float64(len(elements)))
				if len(channels) == 0 {
					continue
				}

				numSignals := 0
				conversions := 0
				for _, ch := range channels {
					numSignals += len(ch.Signals)
					for _, sig := range ch.Signals {
						conv, err := sig.UnitConversion()
						if err != nil {
							return err
						}
						if !conv.IsIdentity() {
							conversions++
						}
					}
				}
				fmt.Printf("  %d signals are mapped. That is, on average, %.3g signals per element.\n",
					numSignals, float64(numSignals)/float64(len(channels)))
				fmt.Printf("  %d signals (%.0f%%) have a unit that differs from the IMAS Data Dictionary (but can be transformed).\n",
					conversions, 100*float64(conversions)/float64(numSignals))
			}
			return nil
		},
	}
}
