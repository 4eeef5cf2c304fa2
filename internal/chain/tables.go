package chain

import "protocol-stats/internal/domain"

var tokenSymbols = map[string]string{
	"0x1AcF131de5Bbc72aE96eE5EC7b59dA2f38b19DBd": "BTC",
	"0x4200000000000000000000000000000000000006": "ETH",
	"0x63bA205dA17003AB46CE0dd78bE8ba8EE3952e5F": "LINK",
	"0xEcb03BBCF83E863B9053A926932DbB07D837eBbE": "USDC",
	"0x8654F060EB1e5533C259cDcBBe39834Bb8141cF4": "USDT",
	"0xFE9cdCC77fb826B380D49F53c8cE298B600cB7F0": "DAI",
}

var arbitrumSwapSources = map[string]string{
	"0xabbc5f99639c9b6bcb58544ddf04efa6802f4064": "EDDX Router",
	"0x09f77e8a13de9a35a7231028187e9fd5db8a2acb": "EDDX OrderBook",
	"0x98a00666cfcb2ba5a405415c2bf6547c63bf5491": "EDDX PositionManager A",
	"0x87a4088bd721f83b6c2e5102e2fa47022cb1c831": "EDDX PositionManager B",
	"0x75e42e6f01baf1d6022bea862a28774a9f8a4a0c": "EDDX PositionManager C",
	"0xb87a436b93ffe9d75c5cfa7bacfff96430b09868": "EDDX PositionRouter C",
	"0x7257ac5d0a0aac04aa7ba2ac0a6eb742e332c3fb": "EDDX OrderExecutor",
	"0x1a0ad27350cccd6f7f168e052100b4960efdb774": "EDDX FastPriceFeed A",
	"0x11d62807dae812a0f1571243460bf94325f43bb7": "EDDX PositionExecutor",
	"0x3b6067d4caa8a14c63fdbe6318f27a0bbc9f9237": "Dodo",
	"0x11111112542d85b3ef69ae05771c2dccff4faa26": "1inch",
	"0x6352a56caadc4f1e25cd6c75970fa768a3304e64": "OpenOcean",
	"0x4775af8fef4809fe10bf05867d2b038a4b5b2146": "Gelato",
	"0x5a9fd7c39a6c488e715437d7b1f3c823d5596ed1": "LiFiDiamond",
	"0x1d838be5d58cc131ae4a23359bc6ad2dddb8b75a": "Vovo",
	"0xc4bed5eeeccbe84780c44c5472e800d3a5053454": "Vovo",
	"0xe40beb54ba00838abe076f6448b27528dd45e4f0": "Vovo",
	"0x9ba57a1d3f6c61ff500f598f16b97007eb02e346": "Vovo",
	"0xfa82f1ba00b0697227e2ad6c668abb4c50ca0b1f": "JonesDAO",
	"0x226cb17a52709034e2ec6abe0d2f0a9ebcec1059": "WardenSwap",
	"0x1111111254fb6c44bac0bed2854e76f90643097d": "1inch",
	"0x6d7a3177f3500bea64914642a49d0b5c0a7dae6d": "deBridge",
	"0xc30141b657f4216252dc59af2e7cdb9d8792e1b0": "socket.tech",
	"0xdd94018f54e565dbfc939f7c44a16e163faab331": "Odos Router",
}

var baseSwapSources = map[string]string{
	"0xf925098c0fb905D7256a61FfA388940f8E8Be853": "EDDX Router",
	"0x9Aee9917A0E7D6fCe32751D7F93e9fB1658dD16D": "EDDX OrderBook",
	"0x8475Fbe5BcCF02c66c386dD8AAf251005e4b0cC8": "EDDX PositionManager",
	"0x43Ba508844BAB522Fe17d3a063316C52f57463e8": "EDDX OrderExecutor",
	"0x1aC4d5F83ef11bEA355bAad28AfeA0EF50250aaC": "EDDX FastPriceFeed A",
	"0x3b6067d4caa8a14c63fdbe6318f27a0bbc9f9237": "Dodo",
	"0x11111112542d85b3ef69ae05771c2dccff4faa26": "1inch",
	"0x6352a56caadc4f1e25cd6c75970fa768a3304e64": "OpenOcean",
	"0x4775af8fef4809fe10bf05867d2b038a4b5b2146": "Gelato",
	"0x5a9fd7c39a6c488e715437d7b1f3c823d5596ed1": "LiFiDiamond",
	"0x1d838be5d58cc131ae4a23359bc6ad2dddb8b75a": "Vovo",
	"0xc4bed5eeeccbe84780c44c5472e800d3a5053454": "Vovo",
	"0xe40beb54ba00838abe076f6448b27528dd45e4f0": "Vovo",
	"0x9ba57a1d3f6c61ff500f598f16b97007eb02e346": "Vovo",
	"0xfa82f1ba00b0697227e2ad6c668abb4c50ca0b1f": "JonesDAO",
	"0x226cb17a52709034e2ec6abe0d2f0a9ebcec1059": "WardenSwap",
	"0x1111111254fb6c44bac0bed2854e76f90643097d": "1inch",
	"0x6d7a3177f3500bea64914642a49d0b5c0a7dae6d": "deBridge",
	"0xc30141b657f4216252dc59af2e7cdb9d8792e1b0": "socket.tech",
	"0xdd94018f54e565dbfc939f7c44a16e163faab331": "Odos Router",
}

var avalancheSwapSources = map[string]string{
	"0x4296e307f108b2f583ff2f7b7270ee7831574ae5": "EDDX OrderBook",
	"0x5f719c2f1095f7b9fc68a68e35b51194f4b6abe8": "EDDX Router",
	"0x7d9d108445f7e59a67da7c16a2ceb08c85b76a35": "EDDX FastPriceFeed",
	"0xf2ec2e52c3b5f8b8bd5a3f93945d05628a233216": "EDDX PositionManager",
	"0xa21b83e579f4315951ba658654c371520bdcb866": "EDDX PositionManager C",
	"0xfff6d276bc37c61a23f06410dce4a400f66420f8": "EDDX PositionRouter C",
	"0xc4729e56b831d74bbc18797e0e17a295fa77488c": "Yak",
	"0x409e377a7affb1fd3369cfc24880ad58895d1dd9": "Dodo",
	"0x6352a56caadc4f1e25cd6c75970fa768a3304e64": "OpenOcean",
	"0x7c5c4af1618220c090a6863175de47afb20fa9df": "Gelato",
	"0x1111111254fb6c44bac0bed2854e76f90643097d": "1inch",
	"0xdef171fe48cf0115b1d80b88dc8eab59176fee57": "ParaSwap",
	"0x2ecf2a2e74b19aab2a62312167aff4b78e93b6c5": "ParaSwap",
	"0xdef1c0ded9bec7f1a1670819833240f027b25eff": "0x",
	"0xe547cadbe081749e5b3dc53cb792dfaea2d02fd2": "EDDX PositionExecutor",
}

var excludedSymbols = map[string]bool{
	"MIM": true,
}

var networks = map[string]*Network{
	Arbitrum: {
		Name:         Arbitrum,
		ChainID:      42161,
		TokenSymbols: lowerKeys(tokenSymbols),
		SwapSources:  lowerKeys(arbitrumSwapSources),
		Excluded:     excludedSymbols,
	},
	Avalanche: {
		Name:         Avalanche,
		ChainID:      43114,
		TokenSymbols: lowerKeys(tokenSymbols),
		SwapSources:  lowerKeys(avalancheSwapSources),
		Excluded:     excludedSymbols,
		BenchmarkWeights: []domain.AssetWeight{
			{Symbol: "BTC", Weight: 0.166},
			{Symbol: "ETH", Weight: 0.166},
			{Symbol: "AVAX", Weight: 0.166},
		},
	},
	Base: {
		Name:         Base,
		ChainID:      84531,
		TokenSymbols: lowerKeys(tokenSymbols),
		SwapSources:  lowerKeys(baseSwapSources),
		Excluded:     excludedSymbols,
	},
}
